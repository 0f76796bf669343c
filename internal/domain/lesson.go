package domain

import "fmt"

// Lesson is a unit of instructional content with an optional trailing quiz
type Lesson struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Category    string         `json:"category,omitempty"`
	Description string         `json:"description,omitempty"`
	Difficulty  Difficulty     `json:"difficulty,omitempty"`
	Content     []ContentBlock `json:"content"`
	Quiz        *Quiz          `json:"quiz,omitempty"`

	// Weak references resolved through the content store at use time.
	// A link to an id that is not in the store means "no neighbor".
	NextLessonID string `json:"next_lesson_id,omitempty"`
	PrevLessonID string `json:"prev_lesson_id,omitempty"`
}

// Difficulty represents lesson difficulty level
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// IsValid reports whether d is a known difficulty. Empty is allowed.
func (d Difficulty) IsValid() bool {
	switch d {
	case "", DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	default:
		return false
	}
}

// BlockKind is the render kind of a content block
type BlockKind string

const (
	BlockText    BlockKind = "text"
	BlockCode    BlockKind = "code"
	BlockDiagram BlockKind = "diagram"
)

// ContentBlock is one piece of lesson content, rendered in sequence order
type ContentBlock struct {
	Kind  BlockKind `json:"kind"`
	Value string    `json:"value"`
}

// QuizKind enumerates quiz types
type QuizKind string

const (
	QuizMultipleChoice QuizKind = "multiple-choice"
	QuizFillInTheBlank QuizKind = "fill-in-the-blank"
)

// QuizOption is a single selectable answer
type QuizOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Quiz is the single question attached to a lesson
type Quiz struct {
	Question        string       `json:"question"`
	Options         []QuizOption `json:"options"`
	CorrectOptionID string       `json:"-"`
	Kind            QuizKind     `json:"kind"`
}

// HasOption reports whether id names one of the quiz options
func (q *Quiz) HasOption(id string) bool {
	for _, opt := range q.Options {
		if opt.ID == id {
			return true
		}
	}
	return false
}

// Validate checks option uniqueness and that the correct option exists
func (q *Quiz) Validate() error {
	if q.Question == "" {
		return fmt.Errorf("%w: quiz question is empty", ErrInvalidContent)
	}
	switch q.Kind {
	case QuizMultipleChoice, QuizFillInTheBlank:
	default:
		return fmt.Errorf("%w: unknown quiz kind %q", ErrInvalidContent, q.Kind)
	}

	seen := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		if opt.ID == "" {
			return fmt.Errorf("%w: quiz option without id", ErrInvalidContent)
		}
		if _, dup := seen[opt.ID]; dup {
			return fmt.Errorf("%w: duplicate quiz option %q", ErrInvalidContent, opt.ID)
		}
		seen[opt.ID] = struct{}{}
	}

	if q.Kind == QuizMultipleChoice && !q.HasOption(q.CorrectOptionID) {
		return fmt.Errorf("%w: correct option %q is not an option", ErrInvalidContent, q.CorrectOptionID)
	}
	return nil
}

// Validate checks the lesson record invariants
func (l *Lesson) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("%w: lesson id is empty", ErrInvalidContent)
	}
	if !l.Difficulty.IsValid() {
		return fmt.Errorf("%w: lesson %s: unknown difficulty %q", ErrInvalidContent, l.ID, l.Difficulty)
	}
	for i, block := range l.Content {
		switch block.Kind {
		case BlockText, BlockCode, BlockDiagram:
		default:
			return fmt.Errorf("%w: lesson %s: block %d has unknown kind %q", ErrInvalidContent, l.ID, i, block.Kind)
		}
	}
	if l.Quiz != nil {
		if err := l.Quiz.Validate(); err != nil {
			return fmt.Errorf("lesson %s: %w", l.ID, err)
		}
	}
	return nil
}

// LessonSummary is a lessons-list catalog entry. A summary may exist
// without a detail record in the store.
type LessonSummary struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Difficulty  Difficulty `json:"difficulty"`
}
