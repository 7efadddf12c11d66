package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newModelsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage the models of a store",
	}
	cmd.AddCommand(newModelsListCmd(a), newModelsDeleteCmd(a))
	return cmd
}

func newModelsListCmd(a *app) *cobra.Command {
	var manifests bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the models of --store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.modelRegistry(cmd.Context())
			if err != nil {
				return err
			}
			entries, err := reg.List(cmd.Context(), manifests)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if manifests {
				fmt.Fprintln(tw, "ID\tSIZE\tCURRENT\tCREATED\tROWS\tTERMS")
			} else {
				fmt.Fprintln(tw, "ID\tSIZE\tCURRENT")
			}
			for _, e := range entries {
				current := ""
				if e.Current {
					current = "*"
				}
				if manifests && e.Manifest != nil {
					fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%d\n", e.ID, e.Size, current,
						formatTime(e.Manifest.CreatedAt), e.Manifest.Rows, e.Manifest.Terms)
					continue
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\n", e.ID, e.Size, current)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVarP(&manifests, "long", "l", false, "read every manifest (downloads each artifact)")
	return cmd
}

func newModelsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID...",
		Short: "Delete models from --store; the current model is kept",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.modelRegistry(cmd.Context())
			if err != nil {
				return err
			}
			for _, arg := range args {
				id, err := uuid.Parse(arg)
				if err != nil {
					return fmt.Errorf("model id %q: %w", arg, err)
				}
				if err := reg.Delete(cmd.Context(), id); err != nil {
					return err
				}
				a.log.Info().Str("model_id", arg).Msg("model deleted")
			}
			return nil
		},
	}
}
