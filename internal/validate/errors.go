package validate

import "strings"

// Error aggregates every structural issue found in a submitted workflow
// definition, so a caller gets one rejection listing all problems
// instead of fixing them one submission at a time.
type Error struct {
	Issues []string
}

func (e *Error) Error() string {
	if len(e.Issues) == 0 {
		return "workflow definition validation failed"
	}
	return "workflow definition validation failed: " + strings.Join(e.Issues, "; ")
}

func (e *Error) Add(issue string) {
	if strings.TrimSpace(issue) == "" {
		return
	}
	e.Issues = append(e.Issues, issue)
}

func (e *Error) OrNil() error {
	if e == nil || len(e.Issues) == 0 {
		return nil
	}
	return e
}
