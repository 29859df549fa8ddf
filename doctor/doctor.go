package doctor

import (
	"context"
	"fmt"
	"io"
	"time"

	"oort/assistant"
)

// Check is one live probe run after the readiness report, such as listing
// audio devices or asking the knowledge base a question.
type Check struct {
	Name string
	Run  func(ctx context.Context) (string, error)
}

const checkTimeout = 10 * time.Second

// Run prints the readiness report, runs the checks and returns an exit
// code (0=all pass, 1=any fail).
func Run(w io.Writer, r assistant.Readiness, checks []Check) int {
	fmt.Fprintln(w, "oort doctor - component readiness")
	fmt.Fprintln(w, "=================================")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "System Status")
	fmt.Fprintf(w, "  Voice Input:    %s\n", status(r.Recognition, "Active"))
	fmt.Fprintf(w, "  Voice Output:   %s\n", status(r.Synthesis, "Active"))
	fmt.Fprintf(w, "  Knowledge Base: %s\n", status(r.KnowledgeBase, "Loaded"))

	allPass := r.All()
	for i, c := range checks {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "[%d/%d] %s\n", i+1, len(checks), c.Name)
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		detail, err := c.Run(ctx)
		cancel()
		if err != nil {
			fmt.Fprintf(w, "  FAIL: %v\n", err)
			allPass = false
			continue
		}
		fmt.Fprintf(w, "  PASS: %s\n", detail)
	}

	if hints := r.Troubleshooting(); len(hints) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Troubleshooting")
		for _, h := range hints {
			fmt.Fprintf(w, "  - %s\n", h)
		}
	}

	fmt.Fprintln(w)
	if allPass {
		fmt.Fprintln(w, "All checks passed!")
		return 0
	}
	fmt.Fprintln(w, "Some checks failed. See details above.")
	return 1
}

func status(ok bool, label string) string {
	if ok {
		return label
	}
	return "Not Available"
}
