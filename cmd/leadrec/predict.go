package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/leadrec/dataset"
)

const defaultTopN = 1000

func newPredictCmd(a *app) *cobra.Command {
	var (
		modelPath     string
		portfolioPath string
		topn          int
		format        string
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Recommend market entries for a portfolio",
		Long: `Predict ranks every market entry that is not in the portfolio by its mean
cosine similarity to the portfolio entries. Portfolio ids that are not in the
model are skipped and reported in the match line.

Examples:
  leadrec predict --model model.lrm --portfolio customers.csv --topn 100
  leadrec predict --store file:///srv/models --portfolio customers.csv --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			ctx := cmd.Context()
			rec, err := a.loadModel(ctx, modelPath)
			if err != nil {
				return err
			}
			ids, err := dataset.ReadPortfolioFile(portfolioPath, a.cfg.Data.IDColumn, a.csvOptions()...)
			if err != nil {
				return err
			}
			recs, stats, err := rec.Predict(ctx, ids, topn)
			if err != nil {
				return err
			}
			return writeRecommendations(cmd.OutOrStdout(), format, recs, stats)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&modelPath, "model", "m", "", "model artifact (default: current model of --store)")
	f.StringVarP(&portfolioPath, "portfolio", "p", "", "portfolio CSV with an id column")
	f.IntVarP(&topn, "topn", "n", defaultTopN, "number of recommendations")
	f.StringVar(&format, "format", formatTable, "output format: table, json or csv")
	_ = cmd.MarkFlagRequired("portfolio")
	return cmd
}
