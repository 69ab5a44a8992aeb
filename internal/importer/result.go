package importer

import (
	"fmt"
	"strings"

	"chuck-jokes/internal/models"
)

// Result describes one import run.
type Result struct {
	RunID       string
	Requested   int
	Inserted    []models.StoredJoke
	Explicit    int
	Unparseable int
	Duplicates  int
	Conflicts   int
	FailedSlots int
	// Exhausted is set once the run's duplicate budget is used up; no more slots were requested.
	Exhausted bool
}

// Summary renders the result for humans.
func (r *Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Imported %d of %d jokes", len(r.Inserted), r.Requested)
	if r.Exhausted {
		b.WriteString(" (all jokes imported)")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Explicit skipped: %d\n", r.Explicit)
	fmt.Fprintf(&b, "Duplicates: %d\n", r.Duplicates)
	if r.Unparseable > 0 {
		fmt.Fprintf(&b, "Unparseable: %d\n", r.Unparseable)
	}
	if r.FailedSlots > 0 {
		fmt.Fprintf(&b, "Slots given up: %d\n", r.FailedSlots)
	}
	fmt.Fprintf(&b, "Run: %s", r.RunID)
	return b.String()
}
