package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/leadrec"
	"github.com/hupe1980/leadrec/dataset"
	"github.com/hupe1980/leadrec/schema"
)

func newFitCmd(a *app) *cobra.Command {
	var (
		dataPath   string
		schemaPath string
		outPath    string
	)
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a model on a market dataset",
		Long: `Fit encodes every market record under the schema, builds the TF-IDF index
and writes the model artifact to --out or publishes it to --store.

Examples:
  # Fit with the embedded market schema
  leadrec fit --data market.csv.gz --out model.lrm

  # Fit with a custom schema and publish to S3
  leadrec fit --data market.csv --schema schema.yaml --store s3://models/leads`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if outPath == "" && a.cfg.Store.URL == "" {
				return errors.New("nothing to write to (use --out or --store)")
			}

			if schemaPath == "" {
				schemaPath = a.cfg.Data.Schema
			}
			opts, err := a.options()
			if err != nil {
				return err
			}
			if schemaPath != "" {
				s, err := schema.LoadFile(schemaPath)
				if err != nil {
					return err
				}
				opts = append(opts, leadrec.WithSchema(s))
			}

			table, err := dataset.ReadCSVFile(dataPath, a.cfg.Data.IDColumn, a.csvOptions()...)
			if err != nil {
				return err
			}
			rec, err := leadrec.Fit(ctx, table, opts...)
			if err != nil {
				return err
			}

			target := outPath
			if outPath != "" {
				if err := rec.SaveFile(ctx, outPath); err != nil {
					return err
				}
			} else {
				reg, err := a.modelRegistry(ctx)
				if err != nil {
					return err
				}
				if target, err = rec.Publish(ctx, reg); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			report := rec.EncodeReport()
			fmt.Fprintf(out, "model:   %s\n", rec.ID())
			fmt.Fprintf(out, "rows:    %d\n", rec.Len())
			fmt.Fprintf(out, "terms:   %d\n", len(rec.Model().Terms()))
			fmt.Fprintf(out, "columns: %d used, %d dropped for missing values, %d denied\n",
				len(report.Used), len(report.DroppedMissing), len(report.Denied))
			if len(report.DroppedMissing) > 0 {
				fmt.Fprintf(out, "dropped: %s\n", strings.Join(report.DroppedMissing, ", "))
			}
			fmt.Fprintf(out, "written: %s\n", target)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&dataPath, "data", "", "market CSV (.csv, .gz, .zst or .zip)")
	f.StringVar(&schemaPath, "schema", "", "schema YAML (default: embedded market schema)")
	f.StringVarP(&outPath, "out", "o", "", "write the model artifact to this file")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}
