// Package placeholder implements single-pass {{token}} substitution for
// candidate message templates. Unknown tokens are left verbatim so a
// partially configured template stays visibly incomplete instead of being
// silently corrupted.
package placeholder

import (
	"strings"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/models"
)

// NotSet is substituted for interview date/time when none is scheduled yet.
const NotSet = "تعیین نشده"

// Render replaces every known {{identifier}} token in content with its value.
// The lookup combines fixed candidate-derived keys with caller-supplied
// extras; extras win on collision except for the fixed candidate identity
// keys. Render never fails.
func Render(content string, candidate models.Candidate, extra map[string]string) string {
	values := make(map[string]string, len(extra)+4)
	for k, v := range extra {
		values[k] = v
	}
	values["candidateName"] = candidate.FullName
	values["position"] = candidate.Position
	values["interviewDate"] = orNotSet(candidate.InterviewDate)
	values["interviewTime"] = orNotSet(candidate.InterviewTime)

	var b strings.Builder
	b.Grow(len(content))
	for {
		open := strings.Index(content, "{{")
		if open < 0 {
			b.WriteString(content)
			break
		}
		end := strings.Index(content[open:], "}}")
		if end < 0 {
			b.WriteString(content)
			break
		}
		end += open
		key := content[open+2 : end]
		b.WriteString(content[:open])
		if value, ok := values[key]; ok {
			b.WriteString(value)
		} else {
			b.WriteString(content[open : end+2])
		}
		content = content[end+2:]
	}
	return b.String()
}

// Has reports whether content references the named placeholder. Used by the
// UI to decide whether to prompt for a value before rendering.
func Has(content, name string) bool {
	return strings.Contains(content, "{{"+name+"}}")
}

func orNotSet(v *string) string {
	if v == nil || *v == "" {
		return NotSet
	}
	return *v
}
