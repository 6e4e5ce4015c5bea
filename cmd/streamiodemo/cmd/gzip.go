package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/altmount-labs/streamio/cancel"
	"github.com/altmount-labs/streamio/cmd/streamiodemo/internal/fileio"
	"github.com/altmount-labs/streamio/cmd/streamiodemo/internal/gzipio"
	"github.com/altmount-labs/streamio/streamio"
)

func init() {
	gzipCmd := &cobra.Command{
		Use:   "gzip <src> <dst.gz>",
		Short: "Compress a file through a gzip-wrapped RawWriter",
		Args:  cobra.ExactArgs(2),
		RunE:  runGzip,
	}
	gunzipCmd := &cobra.Command{
		Use:   "gunzip <src.gz> <dst>",
		Short: "Decompress a file through a gzip-wrapped RawReader",
		Args:  cobra.ExactArgs(2),
		RunE:  runGunzip,
	}
	rootCmd.AddCommand(gzipCmd, gunzipCmd)
}

func runGzip(cmd *cobra.Command, args []string) error {
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

	scope := cancel.Root()
	writer := streamio.NewWriter(gzipio.NewWriter(out), scope)

	n, err := writer.WriteAllFrom(fileio.NewReader(in))
	if err != nil {
		writer.Close()
		return fmt.Errorf("compress: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "compressed %d bytes from %s into %s\n", n, src, dst)
	return nil
}

func runGunzip(cmd *cobra.Command, args []string) error {
	src, dst := args[0], args[1]

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	gzReader, err := gzipio.NewReader(in)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer gzReader.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	scope := cancel.Root()
	writer := streamio.NewWriter(fileio.NewWriter(out), scope)

	n, err := writer.WriteAllFrom(gzReader)
	if err != nil {
		writer.Close()
		return fmt.Errorf("decompress: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "decompressed %d bytes from %s into %s\n", n, src, dst)
	return nil
}
