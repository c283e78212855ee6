package services

import (
	"strings"
	"testing"
)

func TestDescribeRubricKnownBands(t *testing.T) {
	if got := DescribeRubric("6.0-6.5"); !strings.Contains(got, "coherence") {
		t.Errorf("6.0 rubric should mention coherence, got %q", got)
	}
	if got := DescribeRubric("7.0-7.5"); !strings.Contains(got, "collocation") {
		t.Errorf("7.0 rubric should mention collocation, got %q", got)
	}
}

func TestDescribeRubricUnknownLevelStillBriefs(t *testing.T) {
	got := DescribeRubric("9.0")
	if got == "" {
		t.Fatal("rubric must never be empty")
	}
	if !strings.Contains(got, "9.0") {
		t.Errorf("rubric should echo the requested level, got %q", got)
	}
}
