package content

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/felixgeelhaar/learneasy/internal/domain"
	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"
)

// CatalogFile represents the YAML structure of catalog.yaml
type CatalogFile struct {
	Lessons []struct {
		ID          string `yaml:"id"`
		Title       string `yaml:"title"`
		Category    string `yaml:"category"`
		Description string `yaml:"description"`
		Difficulty  string `yaml:"difficulty"`
	} `yaml:"lessons"`
}

// LessonFile represents the YAML structure for a lesson
type LessonFile struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
	Difficulty  string `yaml:"difficulty"`
	Content     []struct {
		Kind  string `yaml:"kind"`
		Value string `yaml:"value"`
	} `yaml:"content"`
	Quiz *struct {
		Kind     string `yaml:"kind"`
		Question string `yaml:"question"`
		Options  []struct {
			ID   string `yaml:"id"`
			Text string `yaml:"text"`
		} `yaml:"options"`
		Correct string `yaml:"correct"`
	} `yaml:"quiz"`
	Next string `yaml:"next"`
	Prev string `yaml:"prev"`
}

// ChallengeFile represents the YAML structure for a coding challenge
type ChallengeFile struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Constraints []string `yaml:"constraints"`
	Examples    []struct {
		Input       string `yaml:"input"`
		Output      string `yaml:"output"`
		Explanation string `yaml:"explanation"`
	} `yaml:"examples"`
	DefaultCode map[string]string `yaml:"default_code"`
	TestCases   []struct {
		Input          string `yaml:"input"`
		ExpectedOutput string `yaml:"expected_output"`
	} `yaml:"test_cases"`
	Explanation struct {
		Text    []string `yaml:"text"`
		Diagram string   `yaml:"diagram"`
	} `yaml:"explanation"`
}

// Loader reads content records from a directory tree:
//
//	catalog.yaml
//	lessons/*.yaml
//	challenges/*.yaml
type Loader struct {
	fsys fs.FS
}

// NewLoader creates a loader over fsys
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// NewDirLoader creates a loader for a directory on disk
func NewDirLoader(dir string) *Loader {
	return NewLoader(os.DirFS(dir))
}

// LoadCatalog loads the lessons list. A missing catalog yields an empty list.
func (l *Loader) LoadCatalog() ([]domain.LessonSummary, error) {
	data, err := fs.ReadFile(l.fsys, "catalog.yaml")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Lessons))
	summaries := make([]domain.LessonSummary, 0, len(file.Lessons))
	for i, entry := range file.Lessons {
		summary := domain.LessonSummary{
			ID:          deriveID(entry.ID, entry.Title),
			Title:       entry.Title,
			Category:    entry.Category,
			Description: entry.Description,
			Difficulty:  parseDifficulty(entry.Difficulty),
		}
		if summary.ID == "" {
			return nil, fmt.Errorf("%w: catalog entry %d has no id or title", domain.ErrInvalidContent, i)
		}
		if !summary.Difficulty.IsValid() {
			return nil, fmt.Errorf("%w: catalog entry %s: unknown difficulty %q", domain.ErrInvalidContent, summary.ID, entry.Difficulty)
		}
		if _, dup := seen[summary.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate catalog entry %s", domain.ErrInvalidContent, summary.ID)
		}
		seen[summary.ID] = struct{}{}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// LoadLesson loads and validates a single lesson file
func (l *Loader) LoadLesson(name string) (*domain.Lesson, error) {
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read lesson file: %w", err)
	}

	var file LessonFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse lesson file %s: %w", name, err)
	}

	lesson := &domain.Lesson{
		ID:           deriveID(file.ID, file.Title),
		Title:        file.Title,
		Category:     file.Category,
		Description:  file.Description,
		Difficulty:   parseDifficulty(file.Difficulty),
		Content:      make([]domain.ContentBlock, len(file.Content)),
		NextLessonID: file.Next,
		PrevLessonID: file.Prev,
	}
	for i, block := range file.Content {
		lesson.Content[i] = domain.ContentBlock{
			Kind:  domain.BlockKind(block.Kind),
			Value: block.Value,
		}
	}

	if file.Quiz != nil {
		kind := domain.QuizKind(file.Quiz.Kind)
		if kind == "" {
			kind = domain.QuizMultipleChoice
		}
		quiz := &domain.Quiz{
			Question:        file.Quiz.Question,
			Options:         make([]domain.QuizOption, len(file.Quiz.Options)),
			CorrectOptionID: file.Quiz.Correct,
			Kind:            kind,
		}
		for i, opt := range file.Quiz.Options {
			quiz.Options[i] = domain.QuizOption{ID: opt.ID, Text: opt.Text}
		}
		lesson.Quiz = quiz
	}

	if err := lesson.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return lesson, nil
}

// LoadChallenge loads and validates a single challenge file
func (l *Loader) LoadChallenge(name string) (*domain.Challenge, error) {
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read challenge file: %w", err)
	}

	var file ChallengeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse challenge file %s: %w", name, err)
	}

	challenge := &domain.Challenge{
		ID:          deriveID(file.ID, file.Title),
		Title:       file.Title,
		Description: file.Description,
		Constraints: file.Constraints,
		Examples:    make([]domain.Example, len(file.Examples)),
		DefaultCode: file.DefaultCode,
		TestCases:   make([]domain.TestCase, len(file.TestCases)),
		Explanation: domain.Explanation{
			Text:    file.Explanation.Text,
			Diagram: file.Explanation.Diagram,
		},
	}
	if challenge.DefaultCode == nil {
		challenge.DefaultCode = make(map[string]string)
	}
	for i, ex := range file.Examples {
		challenge.Examples[i] = domain.Example{
			Input:       ex.Input,
			Output:      ex.Output,
			Explanation: ex.Explanation,
		}
	}
	for i, tc := range file.TestCases {
		challenge.TestCases[i] = domain.TestCase{
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
		}
	}

	if err := challenge.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return challenge, nil
}

// LoadAllLessons loads every lesson under lessons/
func (l *Loader) LoadAllLessons() ([]*domain.Lesson, error) {
	names, err := l.yamlFiles("lessons")
	if err != nil {
		return nil, err
	}

	lessons := make([]*domain.Lesson, 0, len(names))
	for _, name := range names {
		lesson, err := l.LoadLesson(name)
		if err != nil {
			return nil, fmt.Errorf("load lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}
	return lessons, nil
}

// LoadAllChallenges loads every challenge under challenges/
func (l *Loader) LoadAllChallenges() ([]*domain.Challenge, error) {
	names, err := l.yamlFiles("challenges")
	if err != nil {
		return nil, err
	}

	challenges := make([]*domain.Challenge, 0, len(names))
	for _, name := range names {
		challenge, err := l.LoadChallenge(name)
		if err != nil {
			return nil, fmt.Errorf("load challenge: %w", err)
		}
		challenges = append(challenges, challenge)
	}
	return challenges, nil
}

// yamlFiles lists *.yaml and *.yml files in dir, sorted. A missing
// directory is treated as empty.
func (l *Loader) yamlFiles(dir string) ([]string, error) {
	entries, err := fs.ReadDir(l.fsys, dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s directory: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := path.Ext(entry.Name())
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, path.Join(dir, entry.Name()))
		}
	}
	sort.Strings(names)
	return names, nil
}

func deriveID(id, title string) string {
	if id != "" {
		return id
	}
	if title == "" {
		return ""
	}
	return slug.Make(title)
}

func parseDifficulty(s string) domain.Difficulty {
	return domain.Difficulty(strings.ToLower(strings.TrimSpace(s)))
}
