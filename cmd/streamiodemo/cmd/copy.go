package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/altmount-labs/streamio/cancel"
	"github.com/altmount-labs/streamio/cmd/streamiodemo/internal/fileio"
	"github.com/altmount-labs/streamio/streamio"
)

var copyTimeout time.Duration

func init() {
	copyCmd := &cobra.Command{
		Use:   "copy <src> <dst>",
		Short: "Copy a file through streamio.Reader/Writer over a plain file transport",
		Args:  cobra.ExactArgs(2),
		RunE:  runCopy,
	}
	copyCmd.Flags().DurationVar(&copyTimeout, "timeout", 30*time.Second, "cancel the copy if it takes longer than this in total")
	rootCmd.AddCommand(copyCmd)
}

func runCopy(cmd *cobra.Command, args []string) error {
	src, dst := args[0], args[1]

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	scope := cancel.Root().WithTimeout(copyTimeout)

	reader := streamio.NewReader(fileio.NewReader(in), scope)
	defer reader.Close()

	writer := streamio.NewWriter(fileio.NewWriter(out), scope)

	data, err := reader.ReadByteArray()
	if err != nil {
		writer.Close()
		return fmt.Errorf("read source: %w", err)
	}
	writer.WriteByteArray(data)

	if err := writer.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "copied %d bytes from %s to %s\n", len(data), src, dst)
	return nil
}
