package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/felixgeelhaar/learneasy/internal/client"
	"github.com/felixgeelhaar/learneasy/internal/session"
	"github.com/spf13/cobra"
)

var challengeCmd = &cobra.Command{
	Use:   "challenge [id]",
	Short: "List challenges or show one with its starter code",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runChallenge,
}

var submitCmd = &cobra.Command{
	Use:   "submit <challenge-id>",
	Short: "Submit a solution for simulated grading",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubmit,
}

func init() {
	challengeCmd.Flags().StringP("language", "l", "", "Starter code language (default: first configured)")

	submitCmd.Flags().StringP("language", "l", "", "Solution language (default: first configured)")
	submitCmd.Flags().StringP("file", "f", "", "Read the solution from this file (default: starter code)")
	submitCmd.Flags().Bool("run", false, "Preview against the first test case instead of grading all")
}

func runChallenge(cmd *cobra.Command, args []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		challenges, err := c.ListChallenges(cmd.Context())
		if err != nil {
			return fmt.Errorf("list challenges: %w", err)
		}
		if len(challenges) == 0 {
			fmt.Println("No challenges found.")
			return nil
		}
		for _, ch := range challenges {
			fmt.Printf("%-18s %s (%d tests)\n", ch.ID, ch.Title, ch.TestCases)
		}
		return nil
	}

	language, _ := cmd.Flags().GetString("language")
	view, err := c.OpenChallenge(cmd.Context(), args[0], language)
	if err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("challenge %q not found", args[0])
		}
		return err
	}
	defer closeSession(cmd.Context(), c, view.Session.ID)

	printChallenge(view)
	return nil
}

func runSubmit(cmd *cobra.Command, args []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}

	language, _ := cmd.Flags().GetString("language")
	file, _ := cmd.Flags().GetString("file")
	runOnly, _ := cmd.Flags().GetBool("run")

	var code *string
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read solution: %w", err)
		}
		s := string(data)
		code = &s
	}

	view, err := c.OpenChallenge(cmd.Context(), args[0], language)
	if err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("challenge %q not found", args[0])
		}
		return err
	}
	defer closeSession(cmd.Context(), c, view.Session.ID)

	if runOnly {
		view, err = c.Run(cmd.Context(), view.Session.ID, code)
	} else {
		view, err = c.Submit(cmd.Context(), view.Session.ID, code)
	}
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	printResults(view)
	return nil
}

func printChallenge(view *session.View) {
	ch := view.Challenge

	fmt.Println(ch.Title)
	fmt.Println(strings.Repeat("=", len(ch.Title)))
	fmt.Println(ch.Description)

	for i, ex := range ch.Examples {
		fmt.Printf("\nExample %d:\n  Input:  %s\n  Output: %s\n", i+1, ex.Input, ex.Output)
		if ex.Explanation != "" {
			fmt.Printf("  Explanation: %s\n", ex.Explanation)
		}
	}

	if len(ch.Constraints) > 0 {
		fmt.Println("\nConstraints:")
		for _, c := range ch.Constraints {
			fmt.Printf("  • %s\n", c)
		}
	}

	fmt.Printf("\nStarter code (%s):\n", view.Session.Language)
	for _, line := range strings.Split(view.Session.Code, "\n") {
		fmt.Println("    " + line)
	}
	fmt.Printf("\nLanguages: %s\n", strings.Join(view.Languages, ", "))
}

func printResults(view *session.View) {
	for i, r := range view.Session.Results {
		status := "…"
		switch {
		case r.Passed == nil:
		case *r.Passed:
			status = "✓"
		default:
			status = "✗"
		}
		fmt.Printf("%s Test %d  input: %s\n", status, i+1, r.Input)
		fmt.Printf("    expected: %s\n    actual:   %s\n", r.ExpectedOutput, r.ActualOutput)
	}

	if sum := view.Summary; sum != nil {
		fmt.Printf("\n%d/%d passed", sum.Passed, sum.Total)
		if sum.Failed > 0 {
			fmt.Printf(", %d failed", sum.Failed)
		}
		if sum.Pending > 0 {
			fmt.Printf(", %d pending", sum.Pending)
		}
		fmt.Println()
	}

	if exp := view.Explanation; exp != nil {
		fmt.Println("\nExplanation:")
		for _, para := range exp.Text {
			fmt.Println("  " + para)
		}
		if exp.Diagram != "" {
			fmt.Printf("  [diagram: %s]\n", exp.Diagram)
		}
	}
}
