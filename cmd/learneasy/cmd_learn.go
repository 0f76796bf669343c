package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/learneasy/internal/client"
	"github.com/felixgeelhaar/learneasy/internal/content"
	"github.com/felixgeelhaar/learneasy/internal/domain"
	"github.com/felixgeelhaar/learneasy/internal/progress"
	"github.com/felixgeelhaar/learneasy/internal/session"
	"github.com/spf13/cobra"
)

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "List lessons",
	Args:  cobra.NoArgs,
	RunE:  runLessons,
}

var lessonCmd = &cobra.Command{
	Use:   "lesson <id>",
	Short: "Show a lesson and its quiz",
	Args:  cobra.ExactArgs(1),
	RunE:  runLesson,
}

var quizCmd = &cobra.Command{
	Use:   "quiz <lesson-id> <option-id>",
	Short: "Answer a lesson quiz",
	Args:  cobra.ExactArgs(2),
	RunE:  runQuiz,
}

func init() {
	lessonsCmd.Flags().StringP("category", "c", "", "Only show lessons in this category")
	lessonsCmd.Flags().StringP("search", "s", "", "Case-insensitive title search")
}

func runLessons(cmd *cobra.Command, args []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}

	category, _ := cmd.Flags().GetString("category")
	search, _ := cmd.Flags().GetString("search")

	list, err := c.ListLessons(cmd.Context(), content.Filter{Category: category, Search: search})
	if err != nil {
		return fmt.Errorf("list lessons: %w", err)
	}

	if len(list.Lessons) == 0 {
		fmt.Println("No lessons found.")
		return nil
	}

	fmt.Printf("%-18s %-34s %-15s %s\n", "ID", "TITLE", "CATEGORY", "LEVEL")
	for _, l := range list.Lessons {
		fmt.Printf("%-18s %-34s %-15s %s\n", l.ID, l.Title, l.Category, l.Difficulty)
	}
	fmt.Printf("\nCategories: %s\n", strings.Join(list.Categories, ", "))
	return nil
}

func runLesson(cmd *cobra.Command, args []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}

	view, err := c.OpenLesson(cmd.Context(), args[0])
	if err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("lesson %q not found", args[0])
		}
		return err
	}
	defer closeSession(cmd.Context(), c, view.Session.ID)

	printLesson(view)
	return nil
}

func runQuiz(cmd *cobra.Command, args []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}

	view, err := c.OpenLesson(cmd.Context(), args[0])
	if err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("lesson %q not found", args[0])
		}
		return err
	}
	defer closeSession(cmd.Context(), c, view.Session.ID)

	result, err := c.AnswerQuiz(cmd.Context(), view.Session.ID, args[1])
	if err != nil {
		return fmt.Errorf("answer quiz: %w", err)
	}

	mark := "✗"
	if result.Result.Correct {
		mark = "✓"
	}
	fmt.Printf("%s %s\n", mark, result.Result.Message)

	p := result.View.Session.Progress
	fmt.Printf("Progress: %s %d%%\n", renderProgressBar(float64(p)/progress.Max, 20), p)
	return nil
}

func printLesson(view *session.View) {
	lesson := view.Lesson

	fmt.Println(lesson.Title)
	fmt.Println(strings.Repeat("=", len(lesson.Title)))
	if lesson.Category != "" {
		fmt.Printf("%s · %s\n", lesson.Category, lesson.Difficulty)
	}
	p := view.Session.Progress
	fmt.Printf("Progress: %s %d%%\n\n", renderProgressBar(float64(p)/progress.Max, 20), p)

	for _, block := range lesson.Content {
		switch block.Kind {
		case domain.BlockCode:
			for _, line := range strings.Split(block.Value, "\n") {
				fmt.Println("    " + line)
			}
		case domain.BlockDiagram:
			fmt.Printf("[diagram: %s]\n", block.Value)
		default:
			fmt.Println(block.Value)
		}
		fmt.Println()
	}

	if q := lesson.Quiz; q != nil {
		fmt.Printf("Quiz: %s\n", q.Question)
		for _, opt := range q.Options {
			fmt.Printf("  %s) %s\n", opt.ID, opt.Text)
		}
		fmt.Printf("\nAnswer with: learneasy quiz %s <option>\n", lesson.ID)
	}

	if nav := view.Navigation; nav != nil {
		if nav.PrevExists {
			fmt.Printf("Previous: %s\n", nav.PrevID)
		}
		if nav.NextExists {
			fmt.Printf("Next:     %s\n", nav.NextID)
		}
	}
}

// closeSession discards a one-shot CLI session
func closeSession(ctx context.Context, c *client.Client, id string) {
	if err := c.CloseSession(ctx, id); err != nil {
		slog.Debug("failed to close session", "session_id", id, "error", err)
	}
}
