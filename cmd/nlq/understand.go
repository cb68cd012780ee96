package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
)

func newUnderstandCmd() *cobra.Command {
	var (
		callerID   string
		accountID  string
		privileged bool
		filters    []string
	)

	cmd := &cobra.Command{
		Use:   "understand <orders|catalog> <utterance>",
		Short: "Compile an utterance into intent, main query and filters",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			p, err := newPipeline()
			if err != nil {
				return err
			}
			defer p.Close()

			text := strings.Join(args[1:], " ")
			caller := domain.Caller{ID: callerID, AccountID: accountID, Privileged: privileged}

			var out *domain.Understanding
			switch args[0] {
			case "orders":
				out, err = p.understand.UnderstandOrders(ctx, domain.OrderQuery{Text: text, Caller: caller})
			case "catalog", "products":
				ui, perr := parseFilters(filters)
				if perr != nil {
					return perr
				}
				out, err = p.understand.UnderstandCatalog(ctx, domain.CatalogQuery{Text: text, Caller: caller, Filters: ui})
			default:
				return fmt.Errorf("unknown scope %q (want orders or catalog)", args[0])
			}
			if err != nil {
				return err
			}

			if outputJSON {
				if out.Clarification != nil {
					return printJSON(cmd.OutOrStdout(), out.Clarification)
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"intent":     out.Intent,
					"confidence": out.Confidence,
					"normalized": out.Normalized,
					"query":      out.MainQuery,
					"fq":         out.Filters.Strings(),
					"summary":    out.Summary,
				})
			}
			printUnderstanding(cmd, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&callerID, "caller", "cli", "caller id used for clarification counters")
	cmd.Flags().StringVar(&accountID, "account", "", "account id supplied by a trusted channel")
	cmd.Flags().BoolVar(&privileged, "privileged", false, "treat the caller as privileged")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "UI filter as field=value (repeatable)")
	return cmd
}

func parseFilters(raw []string) (map[string][]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string][]string, len(raw))
	for _, f := range raw {
		field, value, ok := strings.Cut(f, "=")
		field, value = strings.TrimSpace(field), strings.TrimSpace(value)
		if !ok || field == "" || value == "" {
			return nil, fmt.Errorf("invalid filter %q (want field=value)", f)
		}
		out[field] = append(out[field], value)
	}
	return out, nil
}

func printUnderstanding(cmd *cobra.Command, u *domain.Understanding) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "intent:     %s (%.2f)\n", u.Intent, u.Confidence)
	fmt.Fprintf(w, "normalized: %s\n", u.Normalized)
	if u.Clarification != nil {
		fmt.Fprintf(w, "clarify:    %s (retry %d)\n", u.Clarification.Message, u.Clarification.RetryCount)
		return
	}
	fmt.Fprintf(w, "query:      %s\n", u.MainQuery)
	for _, fq := range u.Filters.Strings() {
		fmt.Fprintf(w, "fq:         %s\n", fq)
	}
	if u.Summary != "" {
		fmt.Fprintf(w, "summary:    %s\n", u.Summary)
	}
}
