package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maltedev/marketplace-scraper/internal/browser"
	"github.com/maltedev/marketplace-scraper/internal/config"
	"github.com/maltedev/marketplace-scraper/internal/envcheck"
	"github.com/maltedev/marketplace-scraper/internal/extract"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the runtime, libraries, credentials, browser and model API",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(strings.Repeat("=", 60))
		fmt.Println("FACEBOOK MARKETPLACE SCRAPER - SETUP TEST")
		fmt.Println(strings.Repeat("=", 60))
		fmt.Println()

		report := envcheck.NewChecker(os.Stdout, doctorProbes(cfg)...).Run(cmd.Context())

		fmt.Println()
		report.Render(os.Stdout)

		if code := report.ExitCode(); code != 0 {
			return &exitError{code: code}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func doctorProbes(c *config.Config) []envcheck.Probe {
	probes := []envcheck.Probe{envcheck.RuntimeVersion(envcheck.MinGoVersion)}
	probes = append(probes, envcheck.Dependencies(envcheck.DefaultDependencies, nil)...)
	probes = append(probes,
		envcheck.Credentials(config.RequiredCredentials(), os.LookupEnv),
		envcheck.Browser(browser.Probe),
		envcheck.LanguageModel(func(ctx context.Context) (envcheck.PingCloser, error) {
			client, err := extract.New(ctx, c.LLM)
			if err != nil {
				return nil, err
			}
			return client, nil
		}),
	)
	return probes
}
