package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/dissect/dissectors"
	"firestige.xyz/dissect/registry"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect the dissector registry",
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every registered dissector name",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := registry.New()
		dissectors.RegisterAll(r)

		out := cmd.OutOrStdout()
		for _, name := range r.Names() {
			fmt.Fprintf(out, "%s\t(%d matches so far)\n", name, r.Matches(name))
		}
		return nil
	},
}

func init() {
	registryCmd.AddCommand(registryListCmd)
	rootCmd.AddCommand(registryCmd)
}
