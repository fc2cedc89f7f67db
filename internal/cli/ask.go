package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"docchat/internal/helper"
	"docchat/internal/models"
)

const sourcePreviewRunes = 300

var (
	askQuery string
	askTopK  int
	askJSON  bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask a single question about the ingested documents",
	Long: `Answer one question from the passages most similar to it.

Examples:
  docchat ask -q "What does section 4 require?"
  docchat ask -q "Who signed the contract?" --top-k 4 --json`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuery, "query", "q", "", "question (required)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "passages to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askTopK > 0 {
		cfg.RAG.TopK = askTopK
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	answer, err := a.Ask(cmd.Context(), askQuery, nil)
	if err != nil {
		return err
	}

	if askJSON {
		helper.PrettyPrint(cmd.OutOrStdout(), answer)
		return nil
	}
	printAnswer(cmd.OutOrStdout(), answer)
	return nil
}

func printAnswer(w io.Writer, answer *models.Answer) {
	fmt.Fprintf(w, "%s\n", strings.TrimSpace(answer.Content))
	if len(answer.Sources) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSources:")
	for i, s := range answer.Sources {
		fmt.Fprintf(w, "  [%d] %s, page %d\n", i+1, s.Metadata.Source, s.Metadata.Page)
		preview := strings.Join(strings.Fields(s.Text), " ")
		fmt.Fprintf(w, "      %s\n", helper.Truncate(preview, sourcePreviewRunes))
	}
}
