package main

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/leadrec/evaluate"
)

type evaluateRow struct {
	Portfolio string  `json:"portfolio"`
	Train     int     `json:"train"`
	Test      int     `json:"test"`
	Hits      int     `json:"hits"`
	HitRate   float64 `json:"hit_rate"`
	Match     string  `json:"match"`
	Error     string  `json:"error,omitempty"`
}

type evaluateOutput struct {
	Portfolios []evaluateRow     `json:"portfolios"`
	Summary    evaluate.Summary `json:"summary"`
}

func newEvaluateCmd(a *app) *cobra.Command {
	var (
		modelPath  string
		portfolios []string
		fraction   float64
		seed       int64
		topn       int
		format     string
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Measure the hit rate on held-out portfolio entries",
		Long: `Evaluate splits every portfolio once into training and held-out ids,
predicts with the training ids and reports the share of held-out ids among the
recommendations. Without --topn the cutoff is ten times the held-out size.

Example:
  leadrec evaluate --model model.lrm --portfolio a.csv --portfolio b.csv --test-fraction 0.3 --seed 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			ctx := cmd.Context()
			flags := cmd.Flags()
			ec := a.cfg.Evaluate
			if flags.Changed("test-fraction") {
				ec.TestFraction = fraction
			}
			if flags.Changed("seed") {
				ec.Seed = seed
			}
			if flags.Changed("topn") {
				ec.TopN = topn
			}

			rec, err := a.loadModel(ctx, modelPath)
			if err != nil {
				return err
			}
			ids, err := a.readPortfolios(portfolios)
			if err != nil {
				return err
			}
			reports, err := rec.Evaluate(ctx, ids,
				evaluate.WithTestFraction(ec.TestFraction),
				evaluate.WithSeed(ec.Seed),
				evaluate.WithTopN(ec.TopN),
			)
			if err != nil {
				return err
			}
			return writeEvaluation(cmd, format, portfolios, reports)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&modelPath, "model", "m", "", "model artifact (default: current model of --store)")
	f.StringArrayVarP(&portfolios, "portfolio", "p", nil, "portfolio CSV (repeatable)")
	f.Float64Var(&fraction, "test-fraction", 0, "share of each portfolio held out (default from config)")
	f.Int64Var(&seed, "seed", 0, "split seed (default from config)")
	f.IntVarP(&topn, "topn", "n", 0, "recommendations per portfolio (default 10x held-out size)")
	f.StringVar(&format, "format", formatTable, "output format: table, json or csv")
	_ = cmd.MarkFlagRequired("portfolio")
	return cmd
}

func writeEvaluation(cmd *cobra.Command, format string, names []string, reports []evaluate.Report) error {
	rows := make([]evaluateRow, len(reports))
	for i, r := range reports {
		rows[i] = evaluateRow{
			Portfolio: names[r.Index],
			Train:     len(r.Train),
			Test:      len(r.Test),
			Hits:      r.Hits,
			HitRate:   r.HitRate,
			Match:     r.Match.String(),
		}
		if r.Err != nil {
			rows[i].Error = r.Err.Error()
		}
	}
	summary := evaluate.Summarize(reports)
	out := cmd.OutOrStdout()

	switch format {
	case formatJSON:
		return writeJSON(out, evaluateOutput{Portfolios: rows, Summary: summary})
	case formatCSV:
		cw := csv.NewWriter(out)
		_ = cw.Write([]string{"portfolio", "train", "test", "hits", "hit_rate", "match", "error"})
		for _, r := range rows {
			_ = cw.Write([]string{r.Portfolio, strconv.Itoa(r.Train), strconv.Itoa(r.Test), strconv.Itoa(r.Hits),
				strconv.FormatFloat(r.HitRate, 'f', -1, 64), r.Match, r.Error})
		}
		cw.Flush()
		return cw.Error()
	default:
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PORTFOLIO\tTRAIN\tTEST\tHITS\tHIT RATE\tMATCH")
		for _, r := range rows {
			if r.Error != "" {
				fmt.Fprintf(tw, "%s\t%d\t%d\t-\t-\terror: %s\n", r.Portfolio, r.Train, r.Test, r.Error)
				continue
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.4f\t%s\n", r.Portfolio, r.Train, r.Test, r.Hits, r.HitRate, r.Match)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		_, err := fmt.Fprintf(out, "\nmean hit rate %.4f, pooled %.4f (%d/%d), %d of %d portfolios failed\n",
			summary.MeanHitRate, summary.PooledHitRate, summary.Hits, summary.TestSize, summary.Failed, summary.Portfolios)
		return err
	}
}
