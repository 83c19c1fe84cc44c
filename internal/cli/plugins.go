package cli

import (
	"fmt"

	"github.com/Conceptual-Machines/merlai/internal/plugins"
	"github.com/spf13/cobra"
)

var (
	scanDirectory string
	scanOutput    string

	recStyle      string
	recInstrument string
	recFrom       string
)

var scanPluginsCmd = &cobra.Command{
	Use:   "scan-plugins",
	Short: "Scan for VST/AU plugins",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		rt := newRuntime(cmd.Context(), false)

		manager := rt.plugins
		if scanDirectory != "" {
			manager = plugins.NewManager([]string{scanDirectory})
		}

		clog.Info("Scanning for plugins", "paths", manager.Paths())
		found := manager.Scan()

		if scanOutput != "" {
			if err := manager.ExportPresets(scanOutput); err != nil {
				return err
			}
		}

		if jsonOutput {
			return printJSON(out, found)
		}

		printSuccess(out, "Found %d plugins", len(found))
		for _, p := range found {
			fmt.Fprintf(out, "  %s (%s, %s)\n", p.Name, p.Type, p.Category)
		}
		if scanOutput != "" {
			printInfo(out, "Plugin list saved to: %s", scanOutput)
		}
		return nil
	},
}

var recommendPluginsCmd = &cobra.Command{
	Use:   "recommend-plugins",
	Short: "Recommend plugins for a style and instrument",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		rt := newRuntime(cmd.Context(), false)
		if recFrom != "" {
			if err := rt.plugins.ImportPresets(recFrom); err != nil {
				return err
			}
		} else {
			rt.plugins.Scan()
		}

		recs := rt.plugins.Recommend(recStyle, recInstrument)
		if jsonOutput {
			return printJSON(out, recs)
		}
		if len(recs) == 0 {
			printWarning(out, "no plugins found for %s %s", recStyle, recInstrument)
			return nil
		}

		bold.Fprintf(out, "Recommended plugins for %s %s:\n", recStyle, recInstrument)
		for i, p := range recs {
			fmt.Fprintf(out, "  %d. %s (%s)\n", i+1, p.Name, p.Category)
		}
		return nil
	},
}

func init() {
	scanPluginsCmd.Flags().StringVarP(&scanDirectory, "directory", "d", "", "Scan only this directory")
	scanPluginsCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "Write the plugin list to a YAML file")

	recommendPluginsCmd.Flags().StringVarP(&recStyle, "style", "s", "pop", "Musical style")
	recommendPluginsCmd.Flags().StringVarP(&recInstrument, "instrument", "i", "lead", "Instrument role")
	recommendPluginsCmd.Flags().StringVar(&recFrom, "from", "", "Use a plugin list written by scan-plugins --output instead of scanning")
}
