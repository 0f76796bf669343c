package local

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/learneasy/internal/domain"
	"github.com/felixgeelhaar/learneasy/internal/quiz"
	"github.com/felixgeelhaar/learneasy/internal/session"
)

func newTestStore(t *testing.T) *SessionStore {
	t.Helper()
	store, err := NewSessionStore(filepath.Join(t.TempDir(), "sessions"))
	if err != nil {
		t.Fatalf("NewSessionStore() error = %v", err)
	}
	return store
}

func TestSessionStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)

	lesson := session.NewLessonSession("js-basics", 42)
	lesson.Select("c")
	lesson.RecordGrade(quiz.OutcomeCorrect, 72)

	challenge := session.NewChallengeSession("two-sum", "python", "def f(): pass")
	passed := true
	challenge.RecordSubmit([]domain.TestResult{{Input: "x", ExpectedOutput: "y", ActualOutput: "y", Passed: &passed}})

	for _, sess := range []*session.Session{lesson, challenge} {
		if err := store.Save(sess); err != nil {
			t.Fatalf("Save(%s) error = %v", sess.ID, err)
		}
	}

	got, err := store.Get(lesson.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Progress != 72 || got.Feedback != quiz.OutcomeCorrect || got.SelectedOptionID != "c" {
		t.Errorf("lesson round trip = %+v", got)
	}

	got, err = store.Get(challenge.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.ExplanationUnlocked || len(got.Results) != 1 || got.Results[0].Passed == nil || !*got.Results[0].Passed {
		t.Errorf("challenge round trip = %+v", got)
	}
}

func TestSessionStore_Overwrite(t *testing.T) {
	store := newTestStore(t)

	sess := session.NewChallengeSession("two-sum", "javascript", "a")
	if err := store.Save(sess); err != nil {
		t.Fatal(err)
	}
	sess.SetCode("b")
	if err := store.Save(sess); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Code != "b" {
		t.Errorf("Code = %q, want b", got.Code)
	}

	ids, _ := store.List()
	if len(ids) != 1 {
		t.Errorf("List() = %v, want one id", ids)
	}
}

func TestSessionStore_NotFound(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Get("missing"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if err := store.Delete("missing"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
	if store.Exists("missing") {
		t.Error("Exists() = true for missing session")
	}
}

func TestSessionStore_RejectsPathIDs(t *testing.T) {
	store := newTestStore(t)

	for _, id := range []string{"", "../escape", "a/b", ".hidden"} {
		if _, err := store.Get(id); !errors.Is(err, session.ErrNotFound) {
			t.Errorf("Get(%q) error = %v, want ErrNotFound", id, err)
		}
	}
}

func TestSessionStore_ListAndPurge(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		if err := store.Save(session.NewLessonSession("js-basics", 20)); err != nil {
			t.Fatal(err)
		}
	}
	// stray files are ignored
	os.WriteFile(filepath.Join(store.basePath, "notes.txt"), []byte("x"), 0644)

	ids, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 {
		t.Fatalf("List() = %d ids, want 3", len(ids))
	}

	n, err := store.Purge()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Purge() = %d, want 3", n)
	}
	ids, _ = store.List()
	if len(ids) != 0 {
		t.Errorf("List() after purge = %v", ids)
	}
}
