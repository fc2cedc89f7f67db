package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docchat/internal/models"
	"docchat/internal/parser"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file|glob>...",
	Short: "Ingest documents into the vector store",
	Long: `Extract text page by page, split it into token windows, embed each chunk
and append the records to the vector store.

Supported formats: ` + strings.Join(parser.SupportedExtensions(), " ") + `

Examples:
  docchat ingest handbook.pdf
  docchat ingest "docs/**/*.{pdf,md}"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

// expandArgs resolves glob patterns and drops files the parser cannot read.
func expandArgs(args []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for _, arg := range args {
		matches := []string{arg}
		if strings.ContainsAny(arg, "*?[{") {
			var err error
			matches, err = doublestar.FilepathGlob(arg)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
			}
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			if !parser.Supported(m) {
				log.Warn().Str("source", m).Msg("Skipping unsupported file")
				continue
			}
			files = append(files, m)
		}
	}
	return files, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	files, err := expandArgs(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no supported documents matched %s", strings.Join(args, " "))
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	total, failed := 0, 0
	for _, file := range files {
		var bar *progressbar.ProgressBar
		onProgress := func(done, pages int) {
			if bar == nil {
				bar = progressbar.NewOptions(pages,
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionSetWidth(40),
					progressbar.OptionShowCount(),
					progressbar.OptionSetDescription(file),
					progressbar.OptionClearOnFinish(),
				)
			}
			bar.Set(done)
		}

		n, err := a.Ingest(cmd.Context(), file, onProgress)
		if bar != nil {
			bar.Finish()
		}
		switch {
		case errors.Is(err, models.ErrPersistenceFailure):
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s: %d chunks are available now but were not saved: %v\n", file, n, err)
		case err != nil:
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s: %v\n", file, err)
			continue
		}
		total += n
		fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d chunks from %s\n", n, file)
	}

	if len(files) > 1 {
		fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d chunks from %d documents\n", total, len(files)-failed)
	}
	if failed == len(files) {
		return fmt.Errorf("all %d documents failed", failed)
	}
	return nil
}
