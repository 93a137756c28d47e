package envcheck

import (
	"context"
	"fmt"
	"go/version"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/maltedev/marketplace-scraper/pkg/stringutil"
)

const (
	MinGoVersion = "go1.22"

	NameRuntime     = "Go Version"
	NameCredentials = "Environment Variables"
	NameBrowser     = "Playwright Browsers"
	NameLLM         = "Language Model API"
)

// Dependency is a module the binary must be linked against.
type Dependency struct {
	Name   string
	Module string
}

var DefaultDependencies = []Dependency{
	{Name: "Playwright", Module: "github.com/playwright-community/playwright-go"},
	{Name: "Google Generative AI", Module: "github.com/google/generative-ai-go"},
	{Name: "OpenAI", Module: "github.com/openai/openai-go/v3"},
	{Name: "godotenv", Module: "github.com/joho/godotenv"},
	{Name: "goquery", Module: "github.com/PuerkitoBio/goquery"},
	{Name: "cobra", Module: "github.com/spf13/cobra"},
}

func RuntimeVersion(min string) Probe {
	return runtimeVersion(min, runtime.Version)
}

func runtimeVersion(min string, current func() string) Probe {
	return Probe{
		Name: NameRuntime,
		Run: func(ctx context.Context) Result {
			v := current()
			if !version.IsValid(version.Lang(v)) {
				return Result{Passed: true, Detail: fmt.Sprintf("%s (development build)", v)}
			}
			if version.Compare(v, min) < 0 {
				return Result{Passed: false, Detail: fmt.Sprintf("%s (requires %s+)", v, min)}
			}
			return Result{Passed: true, Detail: v}
		},
	}
}

type BuildInfoFunc func() (*debug.BuildInfo, bool)

// Dependencies returns one probe per dependency, each checking that the
// module is part of the running binary's build info.
func Dependencies(deps []Dependency, info BuildInfoFunc) []Probe {
	if info == nil {
		info = debug.ReadBuildInfo
	}

	probes := make([]Probe, 0, len(deps))
	for _, dep := range deps {
		probes = append(probes, Probe{
			Name: dep.Name,
			Run: func(ctx context.Context) Result {
				bi, ok := info()
				if !ok {
					return Result{Passed: false, Detail: "build info unavailable"}
				}
				for _, m := range bi.Deps {
					if m.Path == dep.Module {
						return Result{Passed: true, Detail: m.Path + " " + m.Version}
					}
				}
				return Result{Passed: false, Detail: dep.Module + " not linked"}
			},
		})
	}
	return probes
}

type LookupFunc func(key string) (string, bool)

// Credentials checks that every variable in vars is set. Values are redacted
// in the report.
func Credentials(vars map[string]string, lookup LookupFunc) Probe {
	return Probe{
		Name: NameCredentials,
		Run: func(ctx context.Context) Result {
			names := make([]string, 0, len(vars))
			for name := range vars {
				names = append(names, name)
			}
			sort.Strings(names)

			res := Result{Passed: true}
			var missing []string
			for _, name := range names {
				value, ok := lookup(name)
				if !ok || value == "" {
					res.Passed = false
					missing = append(missing, name)
					res.Lines = append(res.Lines, fmt.Sprintf("✗ %s: Not set (%s)", name, vars[name]))
					continue
				}
				res.Lines = append(res.Lines, fmt.Sprintf("✓ %s: %s", name, stringutil.Redact(value)))
			}

			if res.Passed {
				res.Detail = "all set"
			} else {
				res.Detail = "missing " + strings.Join(missing, ", ")
			}
			return res
		},
	}
}

func Browser(launch func(ctx context.Context) error) Probe {
	return Probe{
		Name: NameBrowser,
		Run: func(ctx context.Context) Result {
			if err := launch(ctx); err != nil {
				return Result{
					Passed: false,
					Detail: fmt.Sprintf("browser not installed or error: %v", err),
					Lines:  []string{"Run: go run github.com/playwright-community/playwright-go/cmd/playwright install chromium"},
				}
			}
			return Result{Passed: true, Detail: "Chromium launched and closed"}
		},
	}
}

// PingCloser is the part of a language model client the probe needs.
type PingCloser interface {
	Ping(ctx context.Context) (string, error)
	Close() error
}

// LanguageModel runs one trivial prompt through the client returned by
// connect.
func LanguageModel(connect func(ctx context.Context) (PingCloser, error)) Probe {
	return Probe{
		Name: NameLLM,
		Run: func(ctx context.Context) Result {
			client, err := connect(ctx)
			if err != nil {
				return Result{Passed: false, Detail: err.Error()}
			}
			defer client.Close()

			answer, err := client.Ping(ctx)
			if err != nil {
				return Result{Passed: false, Detail: err.Error()}
			}
			return Result{Passed: true, Detail: fmt.Sprintf("API connection successful (%q)", strings.TrimSpace(answer))}
		},
	}
}
