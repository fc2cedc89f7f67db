package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"docchat/internal/helper"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the vector store as a chromem-go collection file",
	Long: `Write all records into a chromem-go collection file that other tools can
import. The file is encrypted when rag.encryption_key is set.

Examples:
  docchat export --out ./export/docchat.gob`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "./export/docchat.gob", "output file")
}

func runExport(cmd *cobra.Command, args []string) error {
	if err := helper.CreateFolder(filepath.Dir(exportOut)); err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.Export(cmd.Context(), exportOut)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d of %d records to %s\n", n, a.Stats().Records, exportOut)
	return nil
}
