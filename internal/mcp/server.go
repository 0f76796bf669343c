package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/learneasy/internal/content"
	"github.com/felixgeelhaar/learneasy/internal/domain"
	"github.com/felixgeelhaar/learneasy/internal/session"
	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"
)

// Server wraps the MCP server with LearnEasy functionality
type Server struct {
	mcpServer      *server.Server
	sessionService *session.Service
	content        *content.Registry
}

// Config contains configuration for the MCP server
type Config struct {
	SessionService *session.Service
	Content        *content.Registry
	Version        string
}

// NewServer creates a new MCP server for LearnEasy
func NewServer(cfg Config) *Server {
	s := &Server{
		sessionService: cfg.SessionService,
		content:        cfg.Content,
	}

	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}

	// Create MCP server
	s.mcpServer = server.New(server.Info{
		Name:    "learneasy",
		Version: version,
	}, server.WithInstructions(`
LearnEasy is an interactive e-learning engine with lessons, quizzes and
coding challenges. Challenge grading is simulated: code is never executed.

Available tools:
- learneasy_lessons: List the lesson catalog, optionally filtered
- learneasy_open_lesson: Open a lesson (or move an existing lesson session)
- learneasy_answer: Answer the lesson quiz
- learneasy_open_challenge: Open a coding challenge
- learneasy_run: Preview the test cases (first case only)
- learneasy_submit: Grade all test cases and reveal the explanation
- learneasy_reset: Restore starter code or switch language
- learneasy_status: Show session state
- learneasy_close: End a session
`))

	// Register tools
	s.registerTools()

	return s
}

// registerTools registers all LearnEasy MCP tools
func (s *Server) registerTools() {
	s.mcpServer.Tool("learneasy_lessons").
		Description("List lessons in catalog order, filtered by category and title search.").
		Handler(s.handleLessons)

	s.mcpServer.Tool("learneasy_open_lesson").
		Description("Open a lesson and start tracking progress. Pass session_id to navigate an existing session.").
		Handler(s.handleOpenLesson)

	s.mcpServer.Tool("learneasy_answer").
		Description("Select a quiz option and grade it. A correct answer adds 30% progress.").
		Handler(s.handleAnswer)

	s.mcpServer.Tool("learneasy_open_challenge").
		Description("Open a coding challenge with starter code for a language.").
		Handler(s.handleOpenChallenge)

	s.mcpServer.Tool("learneasy_run").
		Description("Run code against the first test case; the rest stay pending.").
		Handler(s.handleRun)

	s.mcpServer.Tool("learneasy_submit").
		Description("Submit code for grading of every test case and unlock the explanation.").
		Handler(s.handleSubmit)

	s.mcpServer.Tool("learneasy_reset").
		Description("Restore the starter code, optionally switching language.").
		Handler(s.handleReset)

	s.mcpServer.Tool("learneasy_status").
		Description("Get current session state.").
		Handler(s.handleStatus)

	s.mcpServer.Tool("learneasy_close").
		Description("End a LearnEasy session.").
		Handler(s.handleClose)
}

// Input/Output types for tools

type LessonsInput struct {
	Category string `json:"category,omitempty" jsonschema:"description=Category to filter by; All or empty for every category"`
	Search   string `json:"search,omitempty" jsonschema:"description=Case-insensitive title substring"`
}

type LessonsOutput struct {
	Lessons    []domain.LessonSummary `json:"lessons"`
	Categories []string               `json:"categories"`
}

type OpenLessonInput struct {
	LessonID  string `json:"lesson_id" jsonschema:"description=Lesson ID from learneasy_lessons"`
	SessionID string `json:"session_id,omitempty" jsonschema:"description=Existing lesson session to navigate"`
}

type LessonOutput struct {
	SessionID string       `json:"session_id"`
	LessonID  string       `json:"lesson_id"`
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	Quiz      *domain.Quiz `json:"quiz,omitempty"`
	Progress  int          `json:"progress"`
	Next      string       `json:"next,omitempty"`
	Prev      string       `json:"prev,omitempty"`
}

type AnswerInput struct {
	SessionID string `json:"session_id" jsonschema:"description=Session ID from learneasy_open_lesson"`
	OptionID  string `json:"option_id" jsonschema:"description=Quiz option ID"`
}

type AnswerOutput struct {
	Outcome  string `json:"outcome"`
	Message  string `json:"message"`
	Progress int    `json:"progress"`
}

type OpenChallengeInput struct {
	ChallengeID string `json:"challenge_id" jsonschema:"description=Challenge ID"`
	Language    string `json:"language,omitempty" jsonschema:"description=Language tag; one of the configured languages (default: the first)"`
}

type ChallengeOutput struct {
	SessionID   string           `json:"session_id"`
	ChallengeID string           `json:"challenge_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Examples    []domain.Example `json:"examples"`
	Constraints []string         `json:"constraints"`
	Language    string           `json:"language"`
	Code        string           `json:"code"`
}

type EvalInput struct {
	SessionID string  `json:"session_id" jsonschema:"description=Session ID from learneasy_open_challenge"`
	Code      *string `json:"code,omitempty" jsonschema:"description=Replacement code; omit to keep the current code"`
}

type EvalOutput struct {
	Results     []domain.TestResult `json:"results"`
	Summary     string              `json:"summary"`
	Explanation *domain.Explanation `json:"explanation,omitempty"`
}

type ResetInput struct {
	SessionID   string `json:"session_id" jsonschema:"description=Session ID from learneasy_open_challenge"`
	Language    string `json:"language,omitempty" jsonschema:"description=Switch to this configured language and load its starter code"`
	KeepResults bool   `json:"keep_results,omitempty" jsonschema:"description=Keep the current test results"`
}

type ResetOutput struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

type StatusInput struct {
	SessionID string `json:"session_id" jsonschema:"description=Session ID"`
}

type StatusOutput struct {
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"`
	Subject   string `json:"subject"`
	Progress  int    `json:"progress,omitempty"`
	Feedback  string `json:"feedback,omitempty"`
	Phase     string `json:"phase,omitempty"`
	Language  string `json:"language,omitempty"`
	RunCount  int    `json:"run_count"`
	Submits   int    `json:"submit_count"`
	Unlocked  bool   `json:"explanation_unlocked"`
}

type CloseInput struct {
	SessionID string `json:"session_id" jsonschema:"description=Session ID to end"`
}

type CloseOutput struct {
	Message string `json:"message"`
}

// Tool handlers

func (s *Server) handleLessons(ctx context.Context, input LessonsInput) (LessonsOutput, error) {
	lessons := s.content.ListLessons(content.Filter{
		Category: input.Category,
		Search:   input.Search,
	})
	if lessons == nil {
		lessons = []domain.LessonSummary{}
	}

	return LessonsOutput{
		Lessons:    lessons,
		Categories: append([]string{content.AllCategories}, s.content.Categories()...),
	}, nil
}

func (s *Server) handleOpenLesson(ctx context.Context, input OpenLessonInput) (LessonOutput, error) {
	var (
		sess *session.Session
		err  error
	)
	if input.SessionID != "" {
		sess, err = s.sessionService.NavigateLesson(ctx, input.SessionID, input.LessonID)
	} else {
		sess, err = s.sessionService.OpenLesson(ctx, input.LessonID)
	}
	if err != nil {
		return LessonOutput{}, fmt.Errorf("open lesson: %w", err)
	}

	view, err := s.sessionService.View(ctx, sess.ID)
	if err != nil {
		return LessonOutput{}, fmt.Errorf("load session: %w", err)
	}

	output := LessonOutput{
		SessionID: sess.ID,
		LessonID:  view.Lesson.ID,
		Title:     view.Lesson.Title,
		Content:   renderBlocks(view.Lesson.Content),
		Quiz:      view.Lesson.Quiz,
		Progress:  sess.Progress,
	}
	if view.Navigation.NextExists {
		output.Next = view.Navigation.NextID
	}
	if view.Navigation.PrevExists {
		output.Prev = view.Navigation.PrevID
	}
	return output, nil
}

func (s *Server) handleAnswer(ctx context.Context, input AnswerInput) (AnswerOutput, error) {
	if _, err := s.sessionService.SelectOption(ctx, input.SessionID, input.OptionID); err != nil {
		return AnswerOutput{}, fmt.Errorf("select option: %w", err)
	}

	sess, result, err := s.sessionService.SubmitQuiz(ctx, input.SessionID)
	if err != nil {
		return AnswerOutput{}, fmt.Errorf("submit quiz: %w", err)
	}

	return AnswerOutput{
		Outcome:  string(result.Outcome),
		Message:  result.Message(),
		Progress: sess.Progress,
	}, nil
}

func (s *Server) handleOpenChallenge(ctx context.Context, input OpenChallengeInput) (ChallengeOutput, error) {
	sess, err := s.sessionService.OpenChallenge(ctx, input.ChallengeID, input.Language)
	if err != nil {
		return ChallengeOutput{}, fmt.Errorf("open challenge: %w", err)
	}

	challenge, err := s.content.GetChallenge(sess.ChallengeID)
	if err != nil {
		return ChallengeOutput{}, err
	}

	return ChallengeOutput{
		SessionID:   sess.ID,
		ChallengeID: challenge.ID,
		Title:       challenge.Title,
		Description: challenge.Description,
		Examples:    challenge.Examples,
		Constraints: challenge.Constraints,
		Language:    sess.Language,
		Code:        sess.Code,
	}, nil
}

func (s *Server) handleRun(ctx context.Context, input EvalInput) (EvalOutput, error) {
	if _, err := s.sessionService.RunChallenge(ctx, input.SessionID, session.EvalRequest{Code: input.Code}); err != nil {
		return EvalOutput{}, fmt.Errorf("run code: %w", err)
	}
	return s.evalOutput(ctx, input.SessionID)
}

func (s *Server) handleSubmit(ctx context.Context, input EvalInput) (EvalOutput, error) {
	if _, err := s.sessionService.SubmitChallenge(ctx, input.SessionID, session.EvalRequest{Code: input.Code}); err != nil {
		return EvalOutput{}, fmt.Errorf("submit code: %w", err)
	}
	return s.evalOutput(ctx, input.SessionID)
}

func (s *Server) evalOutput(ctx context.Context, sessionID string) (EvalOutput, error) {
	view, err := s.sessionService.View(ctx, sessionID)
	if err != nil {
		return EvalOutput{}, fmt.Errorf("load session: %w", err)
	}

	return EvalOutput{
		Results:     view.Session.Results,
		Summary:     summarize(view.Summary),
		Explanation: view.Explanation,
	}, nil
}

func (s *Server) handleReset(ctx context.Context, input ResetInput) (ResetOutput, error) {
	var (
		sess *session.Session
		err  error
	)
	if input.Language != "" {
		sess, err = s.sessionService.SetLanguage(ctx, input.SessionID, input.Language)
	} else {
		sess, err = s.sessionService.ResetChallengeCode(ctx, input.SessionID, session.ResetOptions{KeepResults: input.KeepResults})
	}
	if err != nil {
		return ResetOutput{}, fmt.Errorf("reset code: %w", err)
	}

	return ResetOutput{
		Language: sess.Language,
		Code:     sess.Code,
	}, nil
}

func (s *Server) handleStatus(ctx context.Context, input StatusInput) (StatusOutput, error) {
	sess, err := s.sessionService.Get(ctx, input.SessionID)
	if err != nil {
		return StatusOutput{}, fmt.Errorf("session not found: %w", err)
	}

	output := StatusOutput{
		SessionID: sess.ID,
		Kind:      string(sess.Kind),
		RunCount:  sess.RunCount,
		Submits:   sess.SubmitCount,
		Unlocked:  sess.ExplanationUnlocked,
	}
	switch sess.Kind {
	case session.KindLesson:
		output.Subject = sess.LessonID
		output.Progress = sess.Progress
		output.Feedback = string(sess.Feedback)
	case session.KindChallenge:
		output.Subject = sess.ChallengeID
		output.Phase = string(sess.Phase)
		output.Language = sess.Language
	}
	return output, nil
}

func (s *Server) handleClose(ctx context.Context, input CloseInput) (CloseOutput, error) {
	if err := s.sessionService.Close(ctx, input.SessionID); err != nil {
		return CloseOutput{}, fmt.Errorf("failed to close session: %w", err)
	}

	return CloseOutput{
		Message: "Session ended successfully",
	}, nil
}

// renderBlocks flattens lesson content into markdown
func renderBlocks(blocks []domain.ContentBlock) string {
	var b strings.Builder
	for i, block := range blocks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch block.Kind {
		case domain.BlockCode:
			b.WriteString("```\n" + block.Value + "\n```")
		case domain.BlockDiagram:
			b.WriteString("[diagram] " + block.Value)
		default:
			b.WriteString(block.Value)
		}
	}
	return b.String()
}

func summarize(sum *session.ResultSummary) string {
	if sum == nil || sum.Total == 0 {
		return "No results"
	}
	parts := []string{fmt.Sprintf("%d/%d passed", sum.Passed, sum.Total)}
	if sum.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", sum.Failed))
	}
	if sum.Pending > 0 {
		parts = append(parts, fmt.Sprintf("%d pending", sum.Pending))
	}
	return strings.Join(parts, " | ")
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// GetMCPServer returns the underlying MCP server (for testing)
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
