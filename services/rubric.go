package services

import (
	"fmt"
	"strings"
)

// DescribeRubric maps a target band label to the scoring criteria the
// examiner stage is briefed with. It always returns a non-empty string; an
// unrecognized level gets the generic prefix only.
func DescribeRubric(level string) string {
	context := fmt.Sprintf("Official IELTS Criteria for Level %s: focus on ", level)
	switch {
	case strings.Contains(level, "6.0"):
		context += "willingness to speak at length, though loss of coherence at times."
	case strings.Contains(level, "7.0"):
		context += "use of less common vocabulary with some style and collocation."
	}
	return context
}
