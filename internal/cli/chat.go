package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docchat/internal/models"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive conversation about the ingested documents",
	Long: `Read questions from stdin and answer each with the previous turns as context.

Commands inside the session:
  /reset   forget the conversation so far
  /exit    leave (Ctrl-D works too)`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	in := bufio.NewScanner(cmd.InOrStdin())
	in.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var history []models.Turn
	fmt.Fprintf(out, "%d chunks loaded. Ask a question, /reset to start over, /exit to quit.\n", a.Stats().Records)

	for {
		fmt.Fprint(out, "\n> ")
		if !in.Scan() {
			fmt.Fprintln(out)
			return in.Err()
		}

		line := strings.TrimSpace(in.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/reset":
			history = nil
			fmt.Fprintln(out, "Conversation cleared.")
			continue
		}

		answer, err := a.Ask(cmd.Context(), line, history)
		if err != nil {
			if cmd.Context().Err() != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", describeAskError(err))
			continue
		}

		fmt.Fprintln(out)
		printAnswer(out, answer)
		history = append(history, models.Turn{Question: line, Answer: answer.Content})
	}
}

func describeAskError(err error) string {
	switch {
	case errors.Is(err, models.ErrEmbeddingUnavailable):
		return fmt.Sprintf("embedding service unavailable, check embed_llm settings (%v)", err)
	case errors.Is(err, models.ErrGenerationUnavailable):
		return fmt.Sprintf("chat model unavailable, check inference_llm settings (%v)", err)
	case errors.Is(err, models.ErrDimensionMismatch):
		return fmt.Sprintf("store was built with a different embedding model (%v)", err)
	}
	return err.Error()
}
