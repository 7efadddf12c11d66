package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/leadrec/schema"
)

func newSchemaCmd(a *app) *cobra.Command {
	var check string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the embedded market schema or validate a schema file",
		Long: `Without flags, schema prints the embedded market schema as YAML; use it as
the starting point for a custom --schema file. With --check it validates a
schema file instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if check == "" {
				_, err := out.Write(schema.DefaultYAML())
				return err
			}
			s, err := schema.LoadFile(check)
			if err != nil {
				return err
			}
			a.log.Debug().Str("path", check).Msg("schema valid")
			_, err = fmt.Fprintf(out, "%s: ok (%s)\n", check, s)
			return err
		},
	}
	cmd.Flags().StringVar(&check, "check", "", "validate this schema file")
	return cmd
}
