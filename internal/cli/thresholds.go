package cli

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// newThresholdsCommand prints the effective rule set as YAML, ready to be
// edited and passed back with --thresholds.
func newThresholdsCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "thresholds",
		Short: "Print the effective rule thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			th, err := g.thresholds()
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(th); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
