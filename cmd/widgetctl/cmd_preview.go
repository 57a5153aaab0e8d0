package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/lgt-bot/backend/internal/model/chat"
	"github.com/zhouzirui/lgt-bot/backend/internal/parser"
	"github.com/zhouzirui/lgt-bot/backend/internal/preview"
)

func newPreviewCmd() *cobra.Command {
	var (
		outDir     string
		html       bool
		typeFlag   string
		outputDesc string
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Build the preview for a reply (or raw code with --type) read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			snippet, err := snippetFrom(string(raw), typeFlag, outputDesc)
			if err != nil {
				return err
			}

			catalog := preview.Default()
			bundle, err := catalog.Build(snippet)
			if err != nil {
				return err
			}

			switch {
			case outDir != "":
				return writeBundle(cmd.OutOrStdout(), outDir, bundle)
			case html:
				doc, err := catalog.Render(bundle)
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), doc)
				return err
			default:
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(bundle)
			}
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "write the bundle's files under this directory")
	cmd.Flags().BoolVar(&html, "html", false, "print the rendered preview document")
	cmd.Flags().StringVarP(&typeFlag, "type", "t", "", "treat stdin as raw code of this snippet type")
	cmd.Flags().StringVar(&outputDesc, "output", "", "output description used with --type")
	return cmd
}

func snippetFrom(input, typeFlag, outputDesc string) (chat.CodeSnippet, error) {
	if typeFlag != "" {
		// Unknown types are passed through and get the fallback preview.
		return chat.CodeSnippet{Type: chat.SnippetType(typeFlag), Code: input, Output: outputDesc}, nil
	}

	reply, err := parser.Parse(input)
	if err != nil {
		return chat.CodeSnippet{}, err
	}
	if reply.Snippet == nil {
		return chat.CodeSnippet{}, errors.New("reply has no code block")
	}
	return *reply.Snippet, nil
}

func writeBundle(w io.Writer, dir string, bundle preview.Bundle) error {
	for _, p := range bundle.Paths() {
		target := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(p, "/")))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, []byte(bundle.Files[p]), 0o644); err != nil {
			return err
		}
		fmt.Fprintln(w, target)
	}
	return nil
}
