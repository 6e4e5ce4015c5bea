package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/altmount-labs/streamio/cancel"
	"github.com/altmount-labs/streamio/cmd/streamiodemo/internal/fileio"
	"github.com/altmount-labs/streamio/cmd/streamiodemo/internal/flaky"
	"github.com/altmount-labs/streamio/streamio"
)

var (
	flakyFailProbability float64
	flakyAttempts        uint
)

func init() {
	flakyCmd := &cobra.Command{
		Use:   "flaky-copy <src> <dst>",
		Short: "Copy a file through a RawReader that fails part of the time, retried with backoff",
		Args:  cobra.ExactArgs(2),
		RunE:  runFlakyCopy,
	}
	flakyCmd.Flags().Float64Var(&flakyFailProbability, "fail-probability", 0.3, "probability each pull simulates a transient failure")
	flakyCmd.Flags().UintVar(&flakyAttempts, "attempts", 5, "retry attempts per pull before giving up")
	rootCmd.AddCommand(flakyCmd)
}

func runFlakyCopy(cmd *cobra.Command, args []string) error {
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

	flakyReader := flaky.New(fileio.NewReader(in), flakyFailProbability, flakyAttempts, 50*time.Millisecond)

	scope := cancel.Root()
	writer := streamio.NewWriter(fileio.NewWriter(out), scope)

	n, err := writer.WriteAllFrom(flakyReader)
	if err != nil {
		writer.Close()
		return fmt.Errorf("copy over flaky transport: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "copied %d bytes from %s to %s over a simulated flaky transport\n", n, src, dst)
	return nil
}
