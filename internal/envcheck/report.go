package envcheck

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

type Report struct {
	Results []Result
}

func (r *Report) PassedCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed {
			n++
		}
	}
	return n
}

func (r *Report) AllPassed() bool {
	return r.PassedCount() == len(r.Results)
}

// Failed returns the names of the failing probes.
func (r *Report) Failed() []string {
	var names []string
	for _, res := range r.Results {
		if !res.Passed {
			names = append(names, res.Name)
		}
	}
	return names
}

func (r *Report) ExitCode() int {
	if r.AllPassed() {
		return 0
	}
	return 1
}

func (r *Report) Render(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("TEST SUMMARY")
	t.AppendHeader(table.Row{"Status", "Check", "Detail"})

	for _, res := range r.Results {
		status := "✓ PASS"
		if !res.Passed {
			status = "✗ FAIL"
		}
		t.AppendRow(table.Row{status, res.Name, res.Detail})
	}

	t.AppendFooter(table.Row{"TOTAL", fmt.Sprintf("%d/%d passed", r.PassedCount(), len(r.Results)), ""})
	t.SetStyle(table.StyleRounded)
	t.Render()

	if r.AllPassed() {
		fmt.Fprintln(w, "\n✓ All tests passed! You're ready to run the scraper.")
		fmt.Fprintln(w, "\nRun: marketplace collect")
		return
	}

	fmt.Fprintln(w, "\n✗ Some tests failed. Please fix the issues above before running the scraper.")
	fmt.Fprintln(w, "\nQuick fixes:")
	fmt.Fprintln(w, "  1. Build with all modules: go mod download && go build ./cmd/marketplace")
	fmt.Fprintln(w, "  2. Install Playwright browsers: go run github.com/playwright-community/playwright-go/cmd/playwright install chromium")
	fmt.Fprintln(w, "  3. Configure .env file: cp .env.example .env (then edit with your credentials)")
}
