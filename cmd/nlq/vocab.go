package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kirillkom/catalog-nlq/internal/infrastructure/facets/static"
	"github.com/kirillkom/catalog-nlq/internal/infrastructure/repository/postgres"
)

func newVocabCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Show, import and review facet vocabularies",
	}
	cmd.AddCommand(newVocabShowCmd(), newVocabImportCmd(), newVocabUnknownCmd())
	return cmd
}

func newVocabShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [collection]",
		Short: "Print facet values from the facet file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := static.Load(facetFile)
			if err != nil {
				return fmt.Errorf("load facets: %w", err)
			}
			collections := source.Collections()
			if len(args) == 1 {
				collections = args
			}

			out := make(map[string]map[string][]string, len(collections))
			for _, c := range collections {
				vocab, err := source.FetchFacets(cmd.Context(), c)
				if err != nil {
					return err
				}
				out[c] = vocab
			}
			if outputJSON {
				return printJSON(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			for _, c := range collections {
				fmt.Fprintf(w, "%s\n", c)
				fields := make([]string, 0, len(out[c]))
				for f := range out[c] {
					fields = append(fields, f)
				}
				sort.Strings(fields)
				for _, f := range fields {
					fmt.Fprintf(w, "  %s: %s\n", f, strings.Join(out[c][f], ", "))
				}
			}
			return nil
		},
	}
}

func newVocabImportCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "import [collection...]",
		Short: "Replace Postgres facet tables with the contents of the facet file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			source, err := static.Load(facetFile)
			if err != nil {
				return fmt.Errorf("load facets: %w", err)
			}
			collections := args
			if len(collections) == 0 {
				collections = source.Collections()
			}

			repo, closeDB, err := openFacetRepository(ctx, dsn)
			if err != nil {
				return err
			}
			defer closeDB()

			for _, c := range collections {
				vocab, err := source.FetchFacets(ctx, c)
				if err != nil {
					return err
				}
				if err := repo.ReplaceFacets(ctx, c, vocab); err != nil {
					return fmt.Errorf("import %s: %w", c, err)
				}
				logger.Info("facets_imported", "collection", c, "fields", len(vocab))
				fmt.Fprintf(cmd.OutOrStdout(), "imported %s (%d fields)\n", c, len(vocab))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "Postgres DSN (default: POSTGRES_DSN)")
	return cmd
}

func newVocabUnknownCmd() *cobra.Command {
	var (
		dsn   string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "unknown",
		Short: "List the most frequent unknown terms collected by the worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			if dsn == "" {
				dsn = cfg.PostgresDSN
			}
			db, err := postgres.OpenDB(dsn)
			if err != nil {
				return fmt.Errorf("open postgres: %w", err)
			}
			defer db.Close()

			stats, err := postgres.NewUnknownTermRepository(db).TopUnknownTerms(ctx, limit)
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(cmd.OutOrStdout(), stats)
			}
			for _, s := range stats {
				fmt.Fprintf(cmd.OutOrStdout(), "%6d  %-24s %s\n", s.Count, s.Term, strings.Join(s.Examples, " | "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "Postgres DSN (default: POSTGRES_DSN)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "number of terms to list")
	return cmd
}

func openFacetRepository(ctx context.Context, dsn string) (*postgres.FacetRepository, func(), error) {
	if dsn == "" {
		dsn = cfg.PostgresDSN
	}
	db, err := postgres.OpenDB(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewFacetRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure facet schema: %w", err)
	}
	return repo, func() { _ = db.Close() }, nil
}
