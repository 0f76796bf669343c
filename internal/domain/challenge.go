package domain

import "fmt"

// Challenge is a coding exercise with declared input/output test cases.
// Grading is simulated; the code is never executed.
type Challenge struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Examples    []Example         `json:"examples"`
	Constraints []string          `json:"constraints"`
	DefaultCode map[string]string `json:"default_code"` // language tag -> starter source
	TestCases   []TestCase        `json:"test_cases"`
	Explanation Explanation       `json:"-"` // revealed only after a submit
}

// Example is an illustrative input/output pair, not used for grading
type Example struct {
	Input       string `json:"input"`
	Output      string `json:"output"`
	Explanation string `json:"explanation,omitempty"`
}

// TestCase is a declared input and its expected output
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

// Explanation is the worked solution shown once a challenge is submitted
type Explanation struct {
	Text    []string `json:"text"`
	Diagram string   `json:"diagram,omitempty"`
}

// TestResult is the session-scoped outcome for one test case.
// Passed is nil while the case is pending.
type TestResult struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	ActualOutput   string `json:"actual_output"`
	Passed         *bool  `json:"passed"`
}

// IsPending returns true if the case has not been evaluated
func (r TestResult) IsPending() bool {
	return r.Passed == nil
}

// StarterCode returns the default code for a language, or "" if the
// challenge has none for it
func (c *Challenge) StarterCode(language string) string {
	return c.DefaultCode[language]
}

// Validate checks the challenge record invariants
func (c *Challenge) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: challenge id is empty", ErrInvalidContent)
	}
	if len(c.TestCases) == 0 {
		return fmt.Errorf("%w: challenge %s has no test cases", ErrInvalidContent, c.ID)
	}
	return nil
}

// Summarize counts passed, failed and pending results
func Summarize(results []TestResult) (passed, failed, pending int) {
	for _, r := range results {
		switch {
		case r.Passed == nil:
			pending++
		case *r.Passed:
			passed++
		default:
			failed++
		}
	}
	return passed, failed, pending
}
