package mcp

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/felixgeelhaar/learneasy/internal/content"
	"github.com/felixgeelhaar/learneasy/internal/domain"
	"github.com/felixgeelhaar/learneasy/internal/progress"
	"github.com/felixgeelhaar/learneasy/internal/runner"
	"github.com/felixgeelhaar/learneasy/internal/session"
)

// setupTestServer creates an MCP server over the built-in catalog. The
// simulator passes every submitted case.
func setupTestServer(t *testing.T) *Server {
	t.Helper()

	registry, err := content.NewDefaultRegistry()
	if err != nil {
		t.Fatalf("load content: %v", err)
	}

	simulator, err := runner.NewSimulator(runner.SimulatorConfig{PassProbability: 1, Seed: 7})
	if err != nil {
		t.Fatalf("create simulator: %v", err)
	}

	sessionService := session.NewService(session.NewMemoryStore(), registry, simulator, progress.NewSeededTracker(7))

	return NewServer(Config{
		SessionService: sessionService,
		Content:        registry,
	})
}

func TestNewServer(t *testing.T) {
	server := setupTestServer(t)

	if server.mcpServer == nil {
		t.Fatal("expected non-nil MCP server")
	}
	if server.GetMCPServer() != server.mcpServer {
		t.Error("GetMCPServer should return the underlying server")
	}
}

func TestHandleLessons(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	out, err := server.handleLessons(ctx, LessonsInput{})
	if err != nil {
		t.Fatalf("handleLessons: %v", err)
	}
	if len(out.Lessons) != 8 {
		t.Errorf("lessons = %d, want 8", len(out.Lessons))
	}
	if out.Categories[0] != content.AllCategories {
		t.Errorf("first category = %q, want All", out.Categories[0])
	}

	out, err = server.handleLessons(ctx, LessonsInput{Category: "Backend", Search: "API"})
	if err != nil {
		t.Fatalf("handleLessons: %v", err)
	}
	for _, l := range out.Lessons {
		if l.Category != "Backend" {
			t.Errorf("lesson %s has category %s", l.ID, l.Category)
		}
	}

	out, _ = server.handleLessons(ctx, LessonsInput{Search: "nothing-matches"})
	if out.Lessons == nil || len(out.Lessons) != 0 {
		t.Errorf("expected empty non-nil list, got %v", out.Lessons)
	}
}

func TestLessonTools(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	lesson, err := server.handleOpenLesson(ctx, OpenLessonInput{LessonID: "rest-api"})
	if err != nil {
		t.Fatalf("open lesson: %v", err)
	}
	if lesson.Progress < progress.InitialMin || lesson.Progress >= progress.InitialMin+progress.InitialSpan {
		t.Errorf("progress = %d, want in [20, 70)", lesson.Progress)
	}
	if lesson.Quiz == nil || len(lesson.Quiz.Options) != 3 {
		t.Fatalf("expected a three-option quiz, got %+v", lesson.Quiz)
	}
	// rest-api points at catalog-only lessons
	if lesson.Next != "" || lesson.Prev != "" {
		t.Errorf("dangling links should be hidden, got next=%q prev=%q", lesson.Next, lesson.Prev)
	}

	answer, err := server.handleAnswer(ctx, AnswerInput{SessionID: lesson.SessionID, OptionID: "b"})
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer.Outcome != "correct" {
		t.Errorf("outcome = %q, want correct", answer.Outcome)
	}
	if answer.Progress != progress.Clamp(lesson.Progress+30) {
		t.Errorf("progress = %d, want %d", answer.Progress, progress.Clamp(lesson.Progress+30))
	}

	_, err = server.handleAnswer(ctx, AnswerInput{SessionID: lesson.SessionID, OptionID: "nope"})
	if !errors.Is(err, domain.ErrInvalidSelection) {
		t.Errorf("err = %v, want ErrInvalidSelection", err)
	}

	moved, err := server.handleOpenLesson(ctx, OpenLessonInput{LessonID: "js-basics", SessionID: lesson.SessionID})
	if err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if moved.SessionID != lesson.SessionID || moved.LessonID != "js-basics" {
		t.Errorf("navigate returned %+v", moved)
	}

	status, err := server.handleStatus(ctx, StatusInput{SessionID: lesson.SessionID})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Kind != "lesson" || status.Subject != "js-basics" || status.Feedback != "" {
		t.Errorf("status = %+v", status)
	}
}

func TestOpenLesson_NotFound(t *testing.T) {
	server := setupTestServer(t)

	_, err := server.handleOpenLesson(context.Background(), OpenLessonInput{LessonID: "html-css"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestChallengeTools(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	ch, err := server.handleOpenChallenge(ctx, OpenChallengeInput{ChallengeID: "two-sum"})
	if err != nil {
		t.Fatalf("open challenge: %v", err)
	}
	if ch.Language != "javascript" || ch.Code == "" {
		t.Errorf("expected javascript starter code, got %q / %q", ch.Language, ch.Code)
	}

	run, err := server.handleRun(ctx, EvalInput{SessionID: ch.SessionID})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if run.Summary != "1/3 passed | 2 pending" {
		t.Errorf("summary = %q", run.Summary)
	}
	if run.Explanation != nil {
		t.Error("explanation must stay locked after run")
	}

	code := "function twoSum() { return [0, 1]; }"
	sub, err := server.handleSubmit(ctx, EvalInput{SessionID: ch.SessionID, Code: &code})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.Summary != "3/3 passed" {
		t.Errorf("summary = %q", sub.Summary)
	}
	if sub.Explanation == nil || len(sub.Explanation.Text) == 0 {
		t.Error("explanation should unlock after submit")
	}

	reset, err := server.handleReset(ctx, ResetInput{SessionID: ch.SessionID, Language: "python"})
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if reset.Language != "python" || !strings.Contains(reset.Code, "def") {
		t.Errorf("reset = %+v", reset)
	}

	status, err := server.handleStatus(ctx, StatusInput{SessionID: ch.SessionID})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Unlocked || status.Submits != 1 || status.RunCount != 1 {
		t.Errorf("status = %+v", status)
	}

	if _, err := server.handleClose(ctx, CloseInput{SessionID: ch.SessionID}); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := server.handleStatus(ctx, StatusInput{SessionID: ch.SessionID}); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestOpenChallenge_ConfiguredLanguages(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	languages, err := runner.NewLanguageRegistry([]string{"python", "go"})
	if err != nil {
		t.Fatalf("language registry: %v", err)
	}
	server.sessionService.SetLanguages(languages)

	ch, err := server.handleOpenChallenge(ctx, OpenChallengeInput{ChallengeID: "two-sum", Language: "go"})
	if err != nil {
		t.Fatalf("open challenge in go: %v", err)
	}
	if ch.Language != "go" {
		t.Errorf("language = %q, want go", ch.Language)
	}

	ch, err = server.handleOpenChallenge(ctx, OpenChallengeInput{ChallengeID: "two-sum"})
	if err != nil {
		t.Fatalf("open challenge: %v", err)
	}
	if ch.Language != "python" {
		t.Errorf("default language = %q, want python", ch.Language)
	}

	_, err = server.handleOpenChallenge(ctx, OpenChallengeInput{ChallengeID: "two-sum", Language: "javascript"})
	if !errors.Is(err, domain.ErrUnsupportedLanguage) {
		t.Errorf("err = %v, want ErrUnsupportedLanguage", err)
	}
}

func TestLanguageSchemaNotPinned(t *testing.T) {
	for _, typ := range []reflect.Type{
		reflect.TypeOf(OpenChallengeInput{}),
		reflect.TypeOf(ResetInput{}),
	} {
		field, ok := typ.FieldByName("Language")
		if !ok {
			t.Fatalf("%s has no Language field", typ.Name())
		}
		if tag := field.Tag.Get("jsonschema"); strings.Contains(tag, "enum=") {
			t.Errorf("%s.Language schema = %q; the language set comes from config", typ.Name(), tag)
		}
	}
}

func TestRunOnLessonSession(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	lesson, err := server.handleOpenLesson(ctx, OpenLessonInput{LessonID: "js-basics"})
	if err != nil {
		t.Fatalf("open lesson: %v", err)
	}

	_, err = server.handleRun(ctx, EvalInput{SessionID: lesson.SessionID})
	if !errors.Is(err, session.ErrWrongKind) {
		t.Errorf("err = %v, want ErrWrongKind", err)
	}
}

func TestRenderBlocks(t *testing.T) {
	got := renderBlocks([]domain.ContentBlock{
		{Kind: domain.BlockText, Value: "Intro"},
		{Kind: domain.BlockCode, Value: "let x = 1;"},
		{Kind: domain.BlockDiagram, Value: "flow"},
	})

	want := "Intro\n\n```\nlet x = 1;\n```\n\n[diagram] flow"
	if got != want {
		t.Errorf("renderBlocks() = %q, want %q", got, want)
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		sum  *session.ResultSummary
		want string
	}{
		{nil, "No results"},
		{&session.ResultSummary{}, "No results"},
		{&session.ResultSummary{Total: 3, Passed: 2, Failed: 1}, "2/3 passed | 1 failed"},
		{&session.ResultSummary{Total: 3, Passed: 3}, "3/3 passed"},
	}

	for _, tt := range tests {
		if got := summarize(tt.sum); got != tt.want {
			t.Errorf("summarize(%+v) = %q, want %q", tt.sum, got, tt.want)
		}
	}
}
