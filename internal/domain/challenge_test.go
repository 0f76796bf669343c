package domain

import "testing"

func boolPtr(b bool) *bool { return &b }

func TestChallenge_StarterCode(t *testing.T) {
	c := &Challenge{
		ID: "two-sum",
		DefaultCode: map[string]string{
			"javascript": "var twoSum = function(nums, target) {};",
		},
	}

	if got := c.StarterCode("javascript"); got == "" {
		t.Error("StarterCode(javascript) should not be empty")
	}
	if got := c.StarterCode("python"); got != "" {
		t.Errorf("StarterCode(python) = %q, want empty", got)
	}
}

func TestChallenge_Validate(t *testing.T) {
	c := &Challenge{ID: "two-sum", TestCases: []TestCase{{Input: "x", ExpectedOutput: "y"}}}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	if err := (&Challenge{ID: "empty"}).Validate(); err == nil {
		t.Error("Validate() without test cases should fail")
	}
	if err := (&Challenge{}).Validate(); err == nil {
		t.Error("Validate() without id should fail")
	}
}

func TestTestResult_IsPending(t *testing.T) {
	if !(TestResult{}).IsPending() {
		t.Error("zero TestResult should be pending")
	}
	if (TestResult{Passed: boolPtr(false)}).IsPending() {
		t.Error("failed TestResult should not be pending")
	}
}

func TestSummarize(t *testing.T) {
	results := []TestResult{
		{Passed: boolPtr(true)},
		{Passed: boolPtr(false)},
		{Passed: nil},
		{Passed: boolPtr(true)},
	}

	passed, failed, pending := Summarize(results)
	if passed != 2 || failed != 1 || pending != 1 {
		t.Errorf("Summarize() = (%d, %d, %d), want (2, 1, 1)", passed, failed, pending)
	}
}
