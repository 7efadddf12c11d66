package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/leadrec/persistence"
)

func newInspectCmd(a *app) *cobra.Command {
	var (
		modelPath string
		format    string
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the header and manifest of a model artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(modelPath)
			if err != nil {
				return err
			}
			h, m, err := persistence.ReadManifest(data)
			if err != nil {
				return err
			}
			a.log.Debug().Str("path", modelPath).Int("bytes", len(data)).Msg("artifact read")

			out := cmd.OutOrStdout()
			if format == formatJSON {
				return writeJSON(out, struct {
					Version     uint16               `json:"version"`
					Codec       string               `json:"codec"`
					Compression string               `json:"compression"`
					BodySize    uint64               `json:"body_size"`
					RawSize     uint64               `json:"raw_size"`
					Checksum    string               `json:"checksum"`
					Manifest    *persistence.Manifest `json:"manifest"`
				}{h.Version, h.CodecName(), h.Compression.String(), h.BodySize, h.RawSize,
					fmt.Sprintf("%08x", h.Checksum), m})
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "model\t%s\n", m.ModelID)
			fmt.Fprintf(tw, "created\t%s\n", formatTime(m.CreatedAt))
			fmt.Fprintf(tw, "format\tv%d, codec %s, compression %s\n", h.Version, h.CodecName(), h.Compression)
			fmt.Fprintf(tw, "body\t%d bytes stored, %d raw, crc32 %08x\n", h.BodySize, h.RawSize, h.Checksum)
			fmt.Fprintf(tw, "rows\t%d\n", m.Rows)
			fmt.Fprintf(tw, "terms\t%d\n", m.Terms)
			fmt.Fprintf(tw, "nonzeros\t%d\n", m.NNZ)
			p := m.Params
			fmt.Fprintf(tw, "ngram\t%d-%d\n", p.NGramMin, p.NGramMax)
			fmt.Fprintf(tw, "df\tmin %s, max %s\n", p.MinDF, p.MaxDF)
			fmt.Fprintf(tw, "norm\t%s\n", p.Norm)
			if m.Schema != nil {
				fmt.Fprintf(tw, "schema\t%s\n", m.Schema)
			}
			return tw.Flush()
		},
	}
	f := cmd.Flags()
	f.StringVarP(&modelPath, "model", "m", "", "model artifact")
	f.StringVar(&format, "format", formatTable, "output format: table or json")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}
