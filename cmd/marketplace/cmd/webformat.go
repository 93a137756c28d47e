package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/maltedev/marketplace-scraper/internal/webformat"
)

var webformatFlags struct {
	in  string
	out string
}

var webformatCmd = &cobra.Command{
	Use:   "webformat",
	Short: "Convert a saved run into HTML cards and detail records",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := webformatFlags.in
		if !cmd.Flags().Changed("in") && cfg.Marketplace.OutputFile != "" {
			in = cfg.Marketplace.OutputFile
		}
		out := webformatFlags.out
		if !cmd.Flags().Changed("out") && cfg.Marketplace.WebOutputFile != "" {
			out = cfg.Marketplace.WebOutputFile
		}

		set, err := webformat.Convert(in, out, os.Stdout, log)
		if err != nil {
			return err
		}
		if set != nil {
			webformat.PrintInstructions(os.Stdout, in, out)
		}
		return nil
	},
}

func init() {
	webformatCmd.Flags().StringVar(&webformatFlags.in, "in", webformat.DefaultInput, "run file to convert")
	webformatCmd.Flags().StringVar(&webformatFlags.out, "out", webformat.DefaultOutput, "fragment set output file")
	rootCmd.AddCommand(webformatCmd)
}
