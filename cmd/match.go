package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/startupbase/fundmatch/internal/catalog"
	"github.com/startupbase/fundmatch/internal/engine"
	"github.com/startupbase/fundmatch/internal/export"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank funding sources against a startup profile",
}

var matchSchemesCmd = &cobra.Command{
	Use:   "schemes",
	Short: "Rank states by their government funding schemes",
	Long: `Scores every state's funding schemes against the startup profile and
ranks states by composite score.

Examples:
  # Inline profile flags
  fundmatch match schemes --industry fintech --funding 2000000 --state Karnataka

  # Profile from a file, top 5 states as CSV
  fundmatch match schemes --profile startup.json --top 5 --format csv --output states.csv

  # Persist the ranking for later analysis
  fundmatch match schemes --profile startup.yaml --save`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMatch(cmd, catalog.DomainSchemes)
	},
}

var matchBanksCmd = &cobra.Command{
	Use:   "banks",
	Short: "Rank banks and fintech sponsors by their funding programs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMatch(cmd, catalog.DomainBanks)
	},
}

func init() {
	registerProfileFlags(matchCmd.PersistentFlags())

	matchCmd.AddCommand(matchSchemesCmd)
	matchCmd.AddCommand(matchBanksCmd)
	rootCmd.AddCommand(matchCmd)
}

func registerProfileFlags(pf *pflag.FlagSet) {
	pf.String("profile", "", "path to a JSON or YAML profile file")
	pf.String("industry", "", "startup industry or sector")
	pf.String("stage", "", "startup stage (idea, seed, growth, ...)")
	pf.String("funding", "", "required funding amount in rupees")
	pf.String("state", "", "state of registration")
	pf.Bool("prefers-grant", false, "prefer grants over loans")
	pf.String("bank-types", "", "comma-separated preferred bank types (public, private, fintech)")
	pf.String("criteria", "", "comma-separated special criteria (dpiit, msme registration, ...)")
	pf.String("services", "", "comma-separated services needed")
	pf.Int("top", 0, "limit output to the N best entities (0=config default)")
	pf.String("format", "table", "output format: table, csv, or xlsx")
	pf.String("output", "", "output file path (default: stdout; required for xlsx)")
	pf.Bool("save", false, "save the ranking to the match_results table")
}

func runMatch(cmd *cobra.Command, domain catalog.Domain) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("match"); err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	save, _ := cmd.Flags().GetBool("save")
	switch format {
	case "table", "csv":
	case "xlsx":
		if outputPath == "" {
			return eris.New("match: --output is required for xlsx format")
		}
	default:
		return eris.Errorf("match: --format must be table, csv, or xlsx (got %q)", format)
	}

	profile, err := buildProfile(cmd)
	if err != nil {
		return err
	}

	groups, err := sectorGroups()
	if err != nil {
		return err
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	cat, err := store.LoadCatalog(ctx, domain)
	if err != nil {
		return err
	}

	log := zap.L().With(zap.String("command", "match"), zap.String("domain", string(domain)))
	log.Info("catalog loaded",
		zap.Int("entities", len(cat.Entities)),
		zap.Int("records", len(cat.Records)),
	)

	var results []engine.MatchResult
	switch domain {
	case catalog.DomainSchemes:
		results, err = engine.MatchSchemes(groups, profile, cat.Entities, cat.Records)
	case catalog.DomainBanks:
		results, err = engine.MatchBanks(groups, profile, cat.Entities, cat.Records)
	}
	if err != nil {
		return err
	}

	log.Info("matching complete", zap.Int("ranked", len(results)))

	if save {
		if err := store.SaveResults(ctx, domain, profile, results); err != nil {
			return err
		}
		fmt.Printf("Saved %d results to match_results\n", len(results))
	}

	top, _ := cmd.Flags().GetInt("top")
	if top == 0 {
		top = cfg.Engine.TopResults
	}
	if top > 0 && len(results) > top {
		results = results[:top]
	}

	return outputResults(results, format, outputPath)
}

// buildProfile assembles the startup profile from --profile and inline
// flags. Inline flags override file fields.
func buildProfile(cmd *cobra.Command) (*engine.Profile, error) {
	var p engine.Profile

	if path, _ := cmd.Flags().GetString("profile"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "match: read profile %s", path)
		}
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, &p)
		default:
			err = json.Unmarshal(data, &p)
		}
		if err != nil {
			return nil, eris.Wrapf(err, "match: parse profile %s", path)
		}
	}

	if v, _ := cmd.Flags().GetString("industry"); v != "" {
		p.Industry = v
	}
	if v, _ := cmd.Flags().GetString("stage"); v != "" {
		p.Stage = v
	}
	if v, _ := cmd.Flags().GetString("funding"); v != "" {
		p.RequiredFunding = engine.CoerceFunding(v)
	}
	if v, _ := cmd.Flags().GetString("state"); v != "" {
		p.RegisteredState = v
	}
	if v, _ := cmd.Flags().GetBool("prefers-grant"); v {
		p.PrefersGrant = true
	}
	if v, _ := cmd.Flags().GetString("bank-types"); v != "" {
		p.PreferredBankTypes = splitAndTrim(v)
	}
	if v, _ := cmd.Flags().GetString("criteria"); v != "" {
		p.SpecialCriteria = splitAndTrim(v)
	}
	if v, _ := cmd.Flags().GetString("services"); v != "" {
		p.ServicesNeeded = splitAndTrim(v)
	}

	return &p, nil
}

func outputResults(results []engine.MatchResult, format, outputPath string) error {
	if format == "xlsx" {
		return export.WriteXLSX(outputPath, results)
	}

	var w *os.File
	if outputPath != "" {
		var err error
		w, err = os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "match: create output file %s", outputPath)
		}
		defer w.Close() //nolint:errcheck
	} else {
		w = os.Stdout
	}

	switch format {
	case "csv":
		return export.WriteCSV(w, results)
	default:
		return export.WriteTable(w, results)
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
