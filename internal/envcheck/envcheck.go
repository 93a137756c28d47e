// Package envcheck verifies that the runtime, libraries, credentials, browser
// and language model needed by a collection run are available.
package envcheck

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Result is the outcome of one probe.
type Result struct {
	Name   string
	Passed bool
	Detail string
	Lines  []string
}

type Probe struct {
	Name string
	Run  func(ctx context.Context) Result
}

type Checker struct {
	probes  []Probe
	timeout time.Duration
	out     io.Writer
}

func NewChecker(out io.Writer, probes ...Probe) *Checker {
	return &Checker{
		probes:  probes,
		timeout: 90 * time.Second,
		out:     out,
	}
}

func (c *Checker) WithTimeout(d time.Duration) *Checker {
	c.timeout = d
	return c
}

// Run executes every probe in order. A failing or panicking probe never stops
// the ones after it.
func (c *Checker) Run(ctx context.Context) *Report {
	report := &Report{}
	for _, p := range c.probes {
		fmt.Fprintf(c.out, "Testing %s... ", p.Name)

		res := c.runOne(ctx, p)
		if res.Passed {
			fmt.Fprintf(c.out, "✓ %s\n", res.Detail)
		} else {
			fmt.Fprintf(c.out, "✗ %s\n", res.Detail)
		}
		for _, line := range res.Lines {
			fmt.Fprintf(c.out, "  %s\n", line)
		}

		report.Results = append(report.Results, res)
	}
	return report
}

func (c *Checker) runOne(ctx context.Context, p Probe) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Name: p.Name, Passed: false, Detail: fmt.Sprintf("probe panicked: %v", r)}
		}
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	res = p.Run(ctx)
	res.Name = p.Name
	return res
}
