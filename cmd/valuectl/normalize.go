package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"value_investor/pkg/core/calc"
	"value_investor/pkg/core/config"
	"value_investor/pkg/core/ingest"
	"value_investor/pkg/core/report"
	"value_investor/pkg/core/store"
	"value_investor/pkg/models"
)

var (
	cadenceFlag string
	dirFlag     string
	formatFlag  string
	labelsFlag  string
	refreshFlag bool
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize TICKER",
	Short: "Fetch a ticker and print its normalized metric table",
	Args:  cobra.ExactArgs(1),
	RunE:  runNormalize,
}

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Print the active label map as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mapping, err := config.LoadMapping(labelsPath())
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(mapping)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	normalizeCmd.Flags().StringVarP(&cadenceFlag, "cadence", "c", "annual", "annual or quarterly")
	normalizeCmd.Flags().StringVarP(&dirFlag, "dir", "d", "", "read bundles from this directory instead of the provider")
	normalizeCmd.Flags().StringVarP(&formatFlag, "format", "f", "table", "table, markdown, html or json")
	normalizeCmd.Flags().BoolVar(&refreshFlag, "refresh", false, "bypass the bundle cache")
	rootCmd.PersistentFlags().StringVar(&labelsFlag, "labels", "", "label map file (default $LABEL_MAP_PATH)")
}

func labelsPath() string {
	if labelsFlag != "" {
		return labelsFlag
	}
	return os.Getenv("LABEL_MAP_PATH")
}

func newFetcher() (ingest.Fetcher, error) {
	if dirFlag != "" {
		return ingest.FileFetcher{Dir: dirFlag}, nil
	}
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if cfg.ProviderURL == "" {
		return nil, fmt.Errorf("PROVIDER_URL is not set; use --dir for local bundles")
	}
	provider := ingest.NewHTTPFetcher(cfg.ProviderURL, cfg.ProviderTimeout, logger.Named("provider"))
	cache := store.NewBundleCache(nil, cfg.CacheDir, cfg.CacheTTL, logger.Named("cache"))
	return ingest.NewCachedFetcher(provider, cache, logger.Named("fetcher")), nil
}

func runNormalize(cmd *cobra.Command, args []string) error {
	cadence, err := models.ParseCadence(cadenceFlag)
	if err != nil {
		return err
	}
	mapping, err := config.LoadMapping(labelsPath())
	if err != nil {
		return err
	}
	fetcher, err := newFetcher()
	if err != nil {
		return err
	}

	var raw *models.RawFinancials
	if cf, ok := fetcher.(*ingest.CachedFetcher); ok && refreshFlag {
		raw, err = cf.Refresh(cmd.Context(), args[0])
	} else {
		raw, err = fetcher.Fetch(cmd.Context(), args[0])
	}
	if err != nil {
		return err
	}

	table, err := calc.Normalize(raw, cadence, mapping.Concepts)
	if err != nil {
		return fmt.Errorf("%s: invalid ticker or no data: %w", args[0], err)
	}
	rep := report.Build(table, calc.InfoCards(raw.Info, mapping.Cards))
	rep.Price = report.Quote(raw.Info)
	return writeReport(cmd.OutOrStdout(), rep)
}

func writeReport(w io.Writer, rep *report.Report) error {
	switch strings.ToLower(formatFlag) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case "markdown", "md":
		_, err := io.WriteString(w, report.Markdown(rep))
		return err
	case "html":
		page, err := report.Page(rep)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, page)
		return err
	case "table":
		return writeTable(w, rep)
	}
	return fmt.Errorf("unknown format %q", formatFlag)
}

func writeTable(w io.Writer, rep *report.Report) error {
	for _, c := range rep.Cards {
		fmt.Fprintf(w, "%-18s %s\n", c.Title+":", c.Display)
	}
	if len(rep.Cards) > 0 {
		fmt.Fprintln(w)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := []string{"Period"}
	for _, f := range rep.Fields {
		header = append(header, string(f))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")
	for _, row := range rep.Rows {
		cells := []string{row.Period}
		for _, f := range rep.Fields {
			cells = append(cells, row.Display[f])
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	return tw.Flush()
}
