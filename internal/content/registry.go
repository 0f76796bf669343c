package content

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/felixgeelhaar/learneasy/internal/domain"
)

// AllCategories is the category filter value that matches every lesson
const AllCategories = "All"

// Filter narrows the lessons list
type Filter struct {
	Category string // exact match; empty or AllCategories matches all
	Search   string // case-insensitive title substring
}

// Matches reports whether a summary passes the filter
func (f Filter) Matches(s domain.LessonSummary) bool {
	if f.Category != "" && f.Category != AllCategories && s.Category != f.Category {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(s.Title), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

// Stats summarizes the loaded content
type Stats struct {
	Lessons         int `json:"lessons"`
	LessonsWithQuiz int `json:"lessons_with_quiz"`
	CatalogEntries  int `json:"catalog_entries"`
	Challenges      int `json:"challenges"`
}

// Neighbors holds a lesson's navigation links and whether each resolves
type Neighbors struct {
	NextID     string `json:"next_id,omitempty"`
	PrevID     string `json:"prev_id,omitempty"`
	NextExists bool   `json:"next_exists"`
	PrevExists bool   `json:"prev_exists"`
}

// Registry is the read-only content store. Records are loaded once and
// never mutated afterwards.
type Registry struct {
	loader     *Loader
	mu         sync.RWMutex
	lessons    map[string]*domain.Lesson
	challenges map[string]*domain.Challenge
	catalog    []domain.LessonSummary
	loaded     bool
}

// NewRegistry creates a new content registry
func NewRegistry(loader *Loader) *Registry {
	return &Registry{
		loader:     loader,
		lessons:    make(map[string]*domain.Lesson),
		challenges: make(map[string]*domain.Challenge),
	}
}

// NewDefaultRegistry creates and loads a registry over the built-in catalog
func NewDefaultRegistry() (*Registry, error) {
	r := NewRegistry(NewLoader(DefaultFS()))
	if err := r.Load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Load reads every record into memory. Any invalid record fails the load.
func (r *Registry) Load() error {
	lessons, err := r.loader.LoadAllLessons()
	if err != nil {
		return fmt.Errorf("load lessons: %w", err)
	}
	challenges, err := r.loader.LoadAllChallenges()
	if err != nil {
		return fmt.Errorf("load challenges: %w", err)
	}
	catalog, err := r.loader.LoadCatalog()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	lessonMap := make(map[string]*domain.Lesson, len(lessons))
	for _, lesson := range lessons {
		if _, dup := lessonMap[lesson.ID]; dup {
			return fmt.Errorf("%w: duplicate lesson %s", domain.ErrInvalidContent, lesson.ID)
		}
		lessonMap[lesson.ID] = lesson
	}
	challengeMap := make(map[string]*domain.Challenge, len(challenges))
	for _, challenge := range challenges {
		if _, dup := challengeMap[challenge.ID]; dup {
			return fmt.Errorf("%w: duplicate challenge %s", domain.ErrInvalidContent, challenge.ID)
		}
		challengeMap[challenge.ID] = challenge
	}

	// Detail records carry their own metadata; fill gaps from the catalog.
	for _, summary := range catalog {
		if lesson, ok := lessonMap[summary.ID]; ok {
			if lesson.Category == "" {
				lesson.Category = summary.Category
			}
			if lesson.Description == "" {
				lesson.Description = summary.Description
			}
			if lesson.Difficulty == "" {
				lesson.Difficulty = summary.Difficulty
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.lessons = lessonMap
	r.challenges = challengeMap
	r.catalog = catalog
	r.loaded = true
	return nil
}

// Loaded reports whether Load has completed
func (r *Registry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// GetLesson returns a lesson by ID
func (r *Registry) GetLesson(id string) (*domain.Lesson, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lesson, ok := r.lessons[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrLessonNotFound, id)
	}
	return lesson, nil
}

// GetChallenge returns a challenge by ID
func (r *Registry) GetChallenge(id string) (*domain.Challenge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	challenge, ok := r.challenges[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrChallengeNotFound, id)
	}
	return challenge, nil
}

// HasLesson reports whether a lesson detail record exists
func (r *Registry) HasLesson(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.lessons[id]
	return ok
}

// ListLessons returns catalog entries in catalog order
func (r *Registry) ListLessons(filter Filter) []domain.LessonSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.LessonSummary, 0, len(r.catalog))
	for _, s := range r.catalog {
		if filter.Matches(s) {
			result = append(result, s)
		}
	}
	return result
}

// Categories returns the distinct catalog categories in first-seen order
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var categories []string
	for _, s := range r.catalog {
		if _, ok := seen[s.Category]; ok || s.Category == "" {
			continue
		}
		seen[s.Category] = struct{}{}
		categories = append(categories, s.Category)
	}
	return categories
}

// ListChallenges returns all challenges ordered by ID
func (r *Registry) ListChallenges() []*domain.Challenge {
	r.mu.RLock()
	defer r.mu.RUnlock()

	challenges := make([]*domain.Challenge, 0, len(r.challenges))
	for _, c := range r.challenges {
		challenges = append(challenges, c)
	}
	sort.Slice(challenges, func(i, j int) bool {
		return challenges[i].ID < challenges[j].ID
	})
	return challenges
}

// Neighbors resolves the navigation links of a lesson
func (r *Registry) Neighbors(lessonID string) (Neighbors, error) {
	lesson, err := r.GetLesson(lessonID)
	if err != nil {
		return Neighbors{}, err
	}

	var n Neighbors
	if id, ok := Next(lesson); ok {
		n.NextID = id
		n.NextExists = r.HasLesson(id)
	}
	if id, ok := Prev(lesson); ok {
		n.PrevID = id
		n.PrevExists = r.HasLesson(id)
	}
	return n, nil
}

// Stats returns content counts
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		Lessons:        len(r.lessons),
		CatalogEntries: len(r.catalog),
		Challenges:     len(r.challenges),
	}
	for _, l := range r.lessons {
		if l.Quiz != nil {
			stats.LessonsWithQuiz++
		}
	}
	return stats
}
