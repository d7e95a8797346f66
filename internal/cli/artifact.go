package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewArtifactCmd создаёт группу команд для artifacts.
func NewArtifactCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "artifacts",
		Aliases: []string{"artifact"},
		Short:   "Download saved artifacts",
	}

	cmd.AddCommand(newArtifactDownloadCmd(clientFn, outputFn))

	return cmd
}

func newArtifactDownloadCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download all exports as a zip archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}

			n, err := client.DownloadExports(f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				os.Remove(output)
				return err
			}

			out.Success(fmt.Sprintf("Saved %s (%d bytes)", output, n))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "exports.zip", "Output file")

	return cmd
}
