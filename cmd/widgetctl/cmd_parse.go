package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/lgt-bot/backend/internal/parser"
)

type parseResult struct {
	parser.Reply
	Error string `json:"error,omitempty"`
}

func newParseCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse a model reply read from stdin and print it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read reply: %w", err)
			}

			reply, parseErr := parser.Parse(string(raw))
			result := parseResult{Reply: reply}
			if parseErr != nil {
				result.Error = parseErr.Error()
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}

			if strict && parseErr != nil {
				return parseErr
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when the code block is malformed")
	return cmd
}
