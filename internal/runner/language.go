package runner

import (
	"fmt"

	"github.com/felixgeelhaar/learneasy/internal/domain"
)

// Language is an editor language tag used to key a challenge's starter code
type Language string

const (
	LanguageJavaScript Language = "javascript"
	LanguagePython     Language = "python"
	LanguageTypeScript Language = "typescript"
	LanguageGo         Language = "go"
	LanguageJava       Language = "java"
)

// IsValid checks if the language is known
func (l Language) IsValid() bool {
	_, ok := DefaultLanguageConfigs()[l]
	return ok
}

// String returns the language as a string
func (l Language) String() string {
	return string(l)
}

// ParseLanguage converts a string to a Language
func ParseLanguage(s string) (Language, error) {
	lang := Language(s)
	if !lang.IsValid() {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedLanguage, s)
	}
	return lang, nil
}

// LanguageConfig contains editor metadata for a language
type LanguageConfig struct {
	DisplayName   string
	FileExtension string
	CommentPrefix string
}

// DefaultLanguageConfigs returns metadata for every known language
func DefaultLanguageConfigs() map[Language]LanguageConfig {
	return map[Language]LanguageConfig{
		LanguageJavaScript: {DisplayName: "JavaScript", FileExtension: ".js", CommentPrefix: "//"},
		LanguagePython:     {DisplayName: "Python", FileExtension: ".py", CommentPrefix: "#"},
		LanguageTypeScript: {DisplayName: "TypeScript", FileExtension: ".ts", CommentPrefix: "//"},
		LanguageGo:         {DisplayName: "Go", FileExtension: ".go", CommentPrefix: "//"},
		LanguageJava:       {DisplayName: "Java", FileExtension: ".java", CommentPrefix: "//"},
	}
}

// DefaultLanguages is the editor language list offered by default.
// The first entry is the initial selection.
var DefaultLanguages = []Language{LanguageJavaScript, LanguagePython}

// LanguageRegistry holds the languages a deployment offers in the editor
type LanguageRegistry struct {
	ordered []Language
	configs map[Language]LanguageConfig
}

// NewLanguageRegistry creates a registry from language tags.
// Unknown tags are rejected; an empty list falls back to DefaultLanguages.
func NewLanguageRegistry(tags []string) (*LanguageRegistry, error) {
	r := &LanguageRegistry{configs: make(map[Language]LanguageConfig)}
	all := DefaultLanguageConfigs()

	if len(tags) == 0 {
		for _, l := range DefaultLanguages {
			tags = append(tags, string(l))
		}
	}

	for _, tag := range tags {
		lang, err := ParseLanguage(tag)
		if err != nil {
			return nil, err
		}
		if _, dup := r.configs[lang]; dup {
			continue
		}
		r.ordered = append(r.ordered, lang)
		r.configs[lang] = all[lang]
	}
	return r, nil
}

// Default returns the initially selected language
func (r *LanguageRegistry) Default() Language {
	return r.ordered[0]
}

// Supports reports whether lang is offered
func (r *LanguageRegistry) Supports(lang Language) bool {
	_, ok := r.configs[lang]
	return ok
}

// Resolve parses tag and checks that it is offered. An empty tag
// resolves to the default language.
func (r *LanguageRegistry) Resolve(tag string) (Language, error) {
	if tag == "" {
		return r.Default(), nil
	}
	lang := Language(tag)
	if !r.Supports(lang) {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedLanguage, tag)
	}
	return lang, nil
}

// Config returns the metadata for a language
func (r *LanguageRegistry) Config(lang Language) (LanguageConfig, bool) {
	cfg, ok := r.configs[lang]
	return cfg, ok
}

// SupportedLanguages returns the offered languages in configured order
func (r *LanguageRegistry) SupportedLanguages() []Language {
	out := make([]Language, len(r.ordered))
	copy(out, r.ordered)
	return out
}
