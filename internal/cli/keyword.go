package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewKeywordCmd создаёт группу команд для negative keywords.
func NewKeywordCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "keywords",
		Aliases: []string{"keyword"},
		Short:   "Manage negative keywords",
	}

	cmd.AddCommand(
		newKeywordGetCmd(clientFn, outputFn),
		newKeywordSetCmd(clientFn, outputFn),
	)

	return cmd
}

func newKeywordGetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the current keyword list",
		RunE: func(cmd *cobra.Command, args []string) error {
			kw, err := clientFn().GetKeywords()
			if err != nil {
				return err
			}
			printKeywords(outputFn(), kw)
			return nil
		},
	}
}

func newKeywordSetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "set [KEYWORD...]",
		Short: "Replace the keyword list (no arguments clears it)",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			kw, err := clientFn().SetKeywords(args)
			if err != nil {
				return err
			}
			printKeywords(out, kw)
			out.Success(fmt.Sprintf("Keywords updated (version %d)", kw.Version))
			return nil
		},
	}
}

func printKeywords(out *Output, kw *KeywordsResponse) {
	rows := make([][]string, len(kw.Keywords))
	for i, k := range kw.Keywords {
		rows[i] = []string{strconv.Itoa(i + 1), k}
	}
	out.Print([]string{"#", "KEYWORD"}, rows, kw)
}
