package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/propinspect/internal/formatter"
	"github.com/oakwood-commons/propinspect/internal/limiter"
	"github.com/oakwood-commons/propinspect/pkg/loader"
)

func (a *app) treeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree <schema>",
		Short: "Print the grouping tree of a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.open(args[0], "")
			if err != nil {
				return err
			}
			v, err := w.cache.GetOrBuild(w.schema, w.inst, sessionID)
			if err != nil {
				return err
			}
			for _, d := range v.Schema.Diagnostics {
				a.notef(cmd, "warning: %s", d)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderSchemaTree(v.Schema))
			return nil
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <schema> [instance]",
		Short: "Print the visible properties of an instance",
		Long: `Print the rows a property panel would paint, in order, after the
hidden, search, keyword, modified-only and ShowIf filters. Without an
instance file the schema defaults are shown.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.view.window.Validate(); err != nil {
				return err
			}
			instancePath := ""
			if len(args) == 2 {
				instancePath = args[1]
			}
			w, err := a.open(args[0], instancePath)
			if err != nil {
				return err
			}
			out, err := a.renderView(cmd, w)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	a.outputFlags(cmd)
	cmd.Flags().AddFlagSet(a.viewFlagSet())
	return cmd
}

// renderView queries w and prints the visible rows.
func (a *app) renderView(cmd *cobra.Command, w *workspace) (string, error) {
	v, err := a.query(cmd, w)
	if err != nil {
		return "", err
	}
	r, err := formatter.NewReport(v)
	if err != nil {
		return "", err
	}
	if a.view.window.IsActive() {
		r.Lines = limiter.Apply(a.view.window, r.Lines)
	}
	return formatter.Render(r, a.renderOptions(cmd))
}

func (a *app) stateCmd() *cobra.Command {
	var instancePath string
	cmd := &cobra.Command{
		Use:   "state <schema> <property>",
		Short: "Print the paint state of one property",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.open(args[0], instancePath)
			if err != nil {
				return err
			}
			v, err := a.query(cmd, w)
			if err != nil {
				return err
			}
			st, err := v.PropertyState(args[1])
			if err != nil {
				return err
			}
			out, err := formatter.RenderState(formatter.NewState(st), a.renderOptions(cmd))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&instancePath, "instance", "i", "", "instance file (default: schema defaults)")
	a.outputFlags(cmd)
	cmd.Flags().AddFlagSet(a.viewFlagSet())
	return cmd
}

func (a *app) revertCmd() *cobra.Command {
	var (
		instancePath string
		group        bool
		write        bool
		docFormat    string
	)
	cmd := &cobra.Command{
		Use:   "revert <schema> <property>",
		Short: "Reset a property and its bound extras to their defaults",
		Long: `Reset a property, and the extra properties bound to it, to the default
in effect for the instance (declared default with any active preset
applied). With --group the property's descendants are reset too. The
updated instance document is printed, or written back with --write.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := loader.ParseFormat(docFormat)
			if err != nil {
				return err
			}
			if format == loader.FormatAuto {
				format = loader.FormatForPath(instancePath)
			}

			w, err := a.open(args[0], instancePath)
			if err != nil {
				return err
			}
			v, err := w.cache.GetOrBuild(w.schema, w.inst, sessionID)
			if err != nil {
				return err
			}
			var reverted []string
			if group {
				reverted, err = v.RevertGroup(args[1])
			} else {
				reverted, err = v.Revert(args[1])
			}
			if err != nil {
				return err
			}
			if len(reverted) == 0 {
				a.notef(cmd, "nothing to revert: %s already matches its default", args[1])
			} else {
				a.notef(cmd, "reverted: %s", strings.Join(reverted, ", "))
			}

			// Settle the cache so the revert is reported and the modified
			// flags are recomputed before the document is written.
			if _, err := a.query(cmd, w); err != nil {
				return err
			}
			data, err := loader.Encode(w.inst.Document(), format)
			if err != nil {
				return err
			}
			if write {
				if err := os.WriteFile(instancePath, data, 0o600); err != nil {
					return fmt.Errorf("write instance: %w", err)
				}
				a.notef(cmd, "wrote %s", instancePath)
				return nil
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&instancePath, "instance", "i", "", "instance file to revert")
	cmd.Flags().BoolVarP(&group, "group", "g", false, "also revert the property's descendants")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result back to the instance file")
	cmd.Flags().StringVarP(&docFormat, "output", "o", "", "document format: yaml|json|toml (default from the instance file)")
	_ = cmd.MarkFlagRequired("instance")
	return cmd
}
