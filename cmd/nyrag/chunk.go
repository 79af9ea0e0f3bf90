package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/nyrag/nyrag/internal/core/chunk"
	"github.com/spf13/cobra"
)

// chunkRecord is one output line of the chunk command.
type chunkRecord struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

func (a *app) chunkCmd() *cobra.Command {
	var size, overlap int

	cmd := &cobra.Command{
		Use:   "chunk [file]",
		Short: "Split text into overlapping word chunks",
		Long:  "Split text from file (or stdin) into chunks of --size words sharing --overlap words, one JSON object per line.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := a.stdin
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return &CommandError{Op: "open input", Err: err, ExitCode: ExitConfigError}
				}
				defer f.Close()
				in = f
			}

			text, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			chunks, err := chunk.Split(string(text), size, overlap)
			if err != nil {
				return &CommandError{Op: "invalid chunking", Err: err, ExitCode: ExitConfigError}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for i, c := range chunks {
				if err := enc.Encode(chunkRecord{Index: i, Text: c}); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&size, "size", 1024, "chunk size in words")
	cmd.Flags().IntVar(&overlap, "overlap", 50, "words shared by consecutive chunks")
	return cmd
}
