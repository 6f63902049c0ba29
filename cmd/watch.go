package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/propinspect/internal/watch"
)

func (a *app) watchCmd() *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch <schema> <instance>",
		Short: "Re-print the visible properties whenever either file changes",
		Long: `Follow the schema and instance files. A schema edit drops the cached
schema and everything built from it; an instance edit marks the
instance dirty. The view is printed again after each settled change.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.view.window.Validate(); err != nil {
				return err
			}
			w, err := a.open(args[0], args[1])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("debounce") {
				debounce = a.cfg.Watch.Debounce
			}
			watcher, err := watch.New([]watch.Target{
				{Path: w.schemaPath, Kind: watch.KindSchema, ID: w.schema.ID()},
				{Path: w.instancePath, Kind: watch.KindInstance, ID: w.inst.ID()},
			}, watch.WithDebounce(debounce), watch.WithLogger(a.log.WithName("watch")))
			if err != nil {
				return err
			}

			if err := a.printView(cmd, w); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return watcher.Run(ctx, func(ev watch.Event) {
				if err := a.applyEvent(w, ev); err != nil {
					a.log.Error(err, "reload failed", "file", ev.Path)
					return
				}
				if err := a.printView(cmd, w); err != nil {
					a.log.Error(err, "render failed")
				}
			})
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "quiet period before a change is applied (default from config)")
	a.outputFlags(cmd)
	cmd.Flags().AddFlagSet(a.viewFlagSet())
	return cmd
}

// applyEvent reloads the changed file and invalidates the matching cache
// tier.
func (a *app) applyEvent(w *workspace, ev watch.Event) error {
	a.log.V(1).Info("file changed", "kind", ev.Kind.String(), "id", ev.ID, "removed", ev.Removed)
	watch.Apply(w.cache, ev)
	if ev.Removed {
		return fmt.Errorf("%s %s was removed", ev.Kind, ev.Path)
	}
	switch ev.Kind {
	case watch.KindSchema:
		if err := w.reloadSchema(); err != nil {
			return err
		}
		// Values are re-read against the new declarations.
		return w.reloadInstance()
	default:
		return w.reloadInstance()
	}
}

func (a *app) printView(cmd *cobra.Command, w *workspace) error {
	out, err := a.renderView(cmd, w)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "--- %s\n%s", time.Now().Format(time.TimeOnly), out)
	return nil
}
