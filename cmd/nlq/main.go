// Command nlq runs the query understanding pipeline offline against a
// facet file, and manages the Postgres facet and unknown-term tables.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/catalog-nlq/internal/config"
	"github.com/kirillkom/catalog-nlq/internal/observability/logging"
)

var (
	facetFile  string
	rulesPath  string
	outputJSON bool
	verbose    bool

	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "nlq",
	Short: "Catalog and order query understanding tools",
	Long: `nlq runs the normalization and understanding pipeline without the API.

Use this tool to:
- Inspect how an utterance is normalized
- Compile an order or catalog query into filters
- Show, import and review facet vocabularies`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		level := "warn"
		if verbose {
			level = "debug"
		}
		logger = logging.New(os.Stderr, "nlq-cli", level, "text")
		slog.SetDefault(logger)
		if facetFile == "" {
			facetFile = cfg.FacetFile
		}
		if rulesPath == "" {
			rulesPath = cfg.RulesPath
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&facetFile, "facets", "f", "", "facet YAML file (default: FACET_FILE)")
	rootCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "rule table YAML file (default: built-in rules)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newNormalizeCmd())
	rootCmd.AddCommand(newUnderstandCmd())
	rootCmd.AddCommand(newVocabCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
