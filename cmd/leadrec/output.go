package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/hupe1980/leadrec/codec"
	"github.com/hupe1980/leadrec/model"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatCSV:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want table, json or csv)", format)
	}
}

// formatTime renders an optional timestamp; unstamped models print "-".
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}

func writeJSON(w io.Writer, v any) error {
	b, err := codec.MarshalIndent(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}

type predictOutput struct {
	Match           model.MatchStats       `json:"match"`
	Recommendations []model.Recommendation `json:"recommendations"`
}

func writeRecommendations(w io.Writer, format string, recs []model.Recommendation, stats model.MatchStats) error {
	switch format {
	case formatJSON:
		if recs == nil {
			recs = []model.Recommendation{}
		}
		return writeJSON(w, predictOutput{Match: stats, Recommendations: recs})
	case formatCSV:
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"rank", "id", "score"})
		for i, r := range recs {
			_ = cw.Write([]string{strconv.Itoa(i + 1), r.ID, strconv.FormatFloat(r.Score, 'f', -1, 64)})
		}
		cw.Flush()
		return cw.Error()
	default:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tID\tSCORE")
		for i, r := range recs {
			fmt.Fprintf(tw, "%d\t%s\t%.6f\n", i+1, r.ID, r.Score)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "\n%s portfolio ids found (%.1f%%)\n", stats, 100*stats.Ratio())
		return err
	}
}
