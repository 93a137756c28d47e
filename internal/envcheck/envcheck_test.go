package envcheck

import (
	"bytes"
	"context"
	"errors"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	answer string
	err    error
	closed bool
}

func (f *fakeModel) Ping(ctx context.Context) (string, error) { return f.answer, f.err }

func (f *fakeModel) Close() error {
	f.closed = true
	return nil
}

func completeBuildInfo() (*debug.BuildInfo, bool) {
	bi := &debug.BuildInfo{}
	for _, dep := range DefaultDependencies {
		bi.Deps = append(bi.Deps, &debug.Module{Path: dep.Module, Version: "v1.0.0"})
	}
	return bi, true
}

func emptyEnv(string) (string, bool) { return "", false }

var credentialVars = map[string]string{
	"FACEBOOK_EMAIL":    "Facebook login email",
	"FACEBOOK_PASSWORD": "Facebook login password",
	"GOOGLE_API_KEY":    "Google Gemini API key",
}

func TestRuntimeVersion(t *testing.T) {
	tests := []struct {
		name    string
		current string
		passed  bool
	}{
		{name: "newer", current: "go1.23.4", passed: true},
		{name: "equal", current: "go1.22", passed: true},
		{name: "older", current: "go1.21.9", passed: false},
		{name: "devel", current: "devel +abc", passed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := runtimeVersion(MinGoVersion, func() string { return tt.current })
			res := p.Run(context.Background())
			assert.Equal(t, tt.passed, res.Passed, res.Detail)
		})
	}
}

func TestDependencies(t *testing.T) {
	partial := func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Deps: []*debug.Module{
			{Path: "github.com/joho/godotenv", Version: "v1.5.1"},
		}}, true
	}

	probes := Dependencies([]Dependency{
		{Name: "godotenv", Module: "github.com/joho/godotenv"},
		{Name: "cobra", Module: "github.com/spf13/cobra"},
	}, partial)
	require.Len(t, probes, 2)

	ok := probes[0].Run(context.Background())
	assert.True(t, ok.Passed)
	assert.Contains(t, ok.Detail, "v1.5.1")

	missing := probes[1].Run(context.Background())
	assert.False(t, missing.Passed)
	assert.Contains(t, missing.Detail, "not linked")

	unavailable := Dependencies(DefaultDependencies[:1], func() (*debug.BuildInfo, bool) { return nil, false })
	assert.False(t, unavailable[0].Run(context.Background()).Passed)
}

func TestCredentialsRedacts(t *testing.T) {
	env := map[string]string{
		"FACEBOOK_EMAIL":    "someone@example.com",
		"FACEBOOK_PASSWORD": "hunter2",
		"GOOGLE_API_KEY":    "AIzaSyXXXXXXXXXXXXXXXX",
	}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	res := Credentials(credentialVars, lookup).Run(context.Background())
	require.True(t, res.Passed)
	require.Len(t, res.Lines, 3)

	joined := ""
	for _, line := range res.Lines {
		joined += line + "\n"
	}
	assert.NotContains(t, joined, "someone@example.com")
	assert.NotContains(t, joined, "hunter2")
	assert.Contains(t, joined, "someone@ex...")
	assert.Contains(t, joined, "hunte...")
}

func TestCredentialsMissing(t *testing.T) {
	lookup := func(k string) (string, bool) {
		if k == "FACEBOOK_EMAIL" {
			return "a@b.c", true
		}
		return "", false
	}

	res := Credentials(credentialVars, lookup).Run(context.Background())
	assert.False(t, res.Passed)
	assert.Equal(t, "missing FACEBOOK_PASSWORD, GOOGLE_API_KEY", res.Detail)
}

func TestBrowserProbe(t *testing.T) {
	ok := Browser(func(ctx context.Context) error { return nil }).Run(context.Background())
	assert.True(t, ok.Passed)

	failed := Browser(func(ctx context.Context) error { return errors.New("executable doesn't exist") }).Run(context.Background())
	assert.False(t, failed.Passed)
	assert.Contains(t, failed.Detail, "executable doesn't exist")
	assert.NotEmpty(t, failed.Lines)
}

func TestLanguageModelProbe(t *testing.T) {
	model := &fakeModel{answer: " test\n"}
	res := LanguageModel(func(ctx context.Context) (PingCloser, error) { return model, nil }).Run(context.Background())
	assert.True(t, res.Passed)
	assert.Contains(t, res.Detail, `"test"`)
	assert.True(t, model.closed)

	res = LanguageModel(func(ctx context.Context) (PingCloser, error) {
		return nil, errors.New("missing API key")
	}).Run(context.Background())
	assert.False(t, res.Passed)

	failing := &fakeModel{err: errors.New("quota exceeded")}
	res = LanguageModel(func(ctx context.Context) (PingCloser, error) { return failing, nil }).Run(context.Background())
	assert.False(t, res.Passed)
	assert.True(t, failing.closed)
}

func TestCheckerRecoversPanics(t *testing.T) {
	var out bytes.Buffer
	checker := NewChecker(&out,
		Probe{Name: "explodes", Run: func(ctx context.Context) Result { panic("boom") }},
		Probe{Name: "after", Run: func(ctx context.Context) Result { return Result{Passed: true, Detail: "fine"} }},
	)

	report := checker.Run(context.Background())
	require.Len(t, report.Results, 2)
	assert.False(t, report.Results[0].Passed)
	assert.Contains(t, report.Results[0].Detail, "boom")
	assert.True(t, report.Results[1].Passed)
	assert.Equal(t, "after", report.Results[1].Name)
}

func TestMissingCredentialsScenario(t *testing.T) {
	probes := []Probe{runtimeVersion(MinGoVersion, func() string { return "go1.23.0" })}
	probes = append(probes, Dependencies(DefaultDependencies, completeBuildInfo)...)
	probes = append(probes,
		Credentials(credentialVars, emptyEnv),
		Browser(func(ctx context.Context) error { return nil }),
		LanguageModel(func(ctx context.Context) (PingCloser, error) { return &fakeModel{answer: "test"}, nil }),
	)

	var progress bytes.Buffer
	report := NewChecker(&progress, probes...).Run(context.Background())

	assert.Equal(t, []string{NameCredentials}, report.Failed())
	assert.Equal(t, len(probes)-1, report.PassedCount())
	assert.Equal(t, 1, report.ExitCode())

	var summary bytes.Buffer
	report.Render(&summary)
	assert.Contains(t, summary.String(), "✗ FAIL")
	assert.Contains(t, summary.String(), "Quick fixes:")
	assert.Contains(t, progress.String(), "FACEBOOK_EMAIL: Not set")
}

func TestReportAllPassed(t *testing.T) {
	report := &Report{Results: []Result{{Name: "a", Passed: true}, {Name: "b", Passed: true}}}
	assert.Equal(t, 0, report.ExitCode())
	assert.Empty(t, report.Failed())

	var out bytes.Buffer
	report.Render(&out)
	assert.Contains(t, out.String(), "2/2")
	assert.Contains(t, out.String(), "All tests passed")
	assert.NotContains(t, out.String(), "Quick fixes:")
}
