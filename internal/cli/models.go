package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect configured AI models",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the models from the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		rt := newRuntime(cmd.Context(), false)
		infos := rt.registry.Info()

		if jsonOutput {
			return printJSON(out, map[string]any{
				"models":  infos,
				"count":   len(infos),
				"default": rt.registry.Default(),
			})
		}
		if len(infos) == 0 {
			printWarning(out, "no AI models configured; generation uses the rules")
			return nil
		}

		def := rt.registry.Default()
		for _, name := range rt.registry.List() {
			info := infos[name]
			marker := " "
			if name == def {
				marker = "*"
			}
			status := "available"
			if !info.Available {
				status = "unavailable"
			}
			fmt.Fprintf(out, "%s %-20s %-8s %s\n", marker, name, info.Type, status)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "merlai %s\n", version)
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
}
