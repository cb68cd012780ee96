package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <utterance>",
		Short: "Print the normalized form of an utterance and its unknown tokens",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline()
			if err != nil {
				return err
			}
			defer p.Close()

			text := strings.Join(args, " ")
			known := p.vocabulary.KnownTerms(context.Background())
			normalized := p.normalizer.Normalize(text)
			unknown := p.normalizer.UnknownTokens(normalized, known)

			if outputJSON {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"input":      text,
					"normalized": normalized,
					"unknown":    unknown,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "normalized: %s\n", normalized)
			if len(unknown) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "unknown:    %s\n", strings.Join(unknown, ", "))
			}
			return nil
		},
	}
}
