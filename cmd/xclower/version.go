package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"xclower/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := useColor(cmd); err != nil {
			return err
		}
		asJSON, err := cmd.Flags().GetBool("json")
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(version.Current())
		}
		_, err = fmt.Fprint(out, version.Describe(version.Current()))
		return err
	},
}

func init() {
	versionCmd.Flags().Bool("json", false, "print version information as JSON")
}
