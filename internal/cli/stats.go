package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"docchat/internal/helper"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show vector store statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	stats := a.Stats()
	if statsJSON {
		helper.PrettyPrint(cmd.OutOrStdout(), stats)
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Backend:    %s\n", stats.Backend)
	fmt.Fprintf(out, "Records:    %d\n", stats.Records)
	fmt.Fprintf(out, "Dimension:  %d\n", stats.Dimension)
	fmt.Fprintf(out, "Next id:    %d\n", stats.NextID)
	return nil
}
