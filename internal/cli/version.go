package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vladislavdragonenkov/breaktime/internal/version"
)

func newVersionCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show breaktime version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			build := version.Current()
			if opts.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(build)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "breaktime %s\n", build)
			return nil
		},
	}
}
