package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldwatch/fieldwatch/internal/config"
	"github.com/fieldwatch/fieldwatch/internal/demo"
	"github.com/fieldwatch/fieldwatch/internal/engine"
	"github.com/fieldwatch/fieldwatch/internal/hook"
	"github.com/fieldwatch/fieldwatch/internal/store"
)

// NewDemoCommand creates the `fieldwatch demo` command: a scripted scenario
// against a SQLite database showing dispatch, commit deferral and condition
// matching end to end.
func NewDemoCommand(opts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted lifecycle scenario against SQLite",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = cfg.Database.Path
			}

			out := cmd.OutOrStdout()
			notify := func(event, key string) {
				fmt.Fprintf(out, "event: %s (%s)\n", event, key)
			}

			reg := hook.NewRegistry()
			if err := demo.BuildRegistry(reg, notify); err != nil {
				return fmt.Errorf("build registry: %w", err)
			}
			eng := engine.NewDispatcher(reg, engine.WithTxManager(store.AmbientTx{}))

			st, err := store.Open(dbPath, eng)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()

			// Create a paid order inside a transaction; the receipt hook
			// is deferred and only fires once the commit succeeds.
			txCtx, tx, err := st.BeginTx(ctx)
			if err != nil {
				return err
			}
			order := &demo.Order{Status: demo.OrderPending, IsPaid: true, TotalCents: 4200}
			if err := st.SaveOrder(txCtx, order); err != nil {
				tx.Rollback()
				return err
			}
			fmt.Fprintf(out, "created order %s (receipt deferred until commit)\n", order.ID)
			if err := tx.Commit(ctx); err != nil {
				return err
			}

			// Ship it: the ChangesTo(status=shipped) AND Is(is_paid=true)
			// condition holds, so the notify hook fires.
			loaded, err := st.LoadOrder(ctx, order.ID)
			if err != nil {
				return err
			}
			loaded.Status = demo.OrderShipped
			if err := st.SaveOrder(ctx, loaded); err != nil {
				return err
			}
			fmt.Fprintf(out, "order %s shipped, notified=%v\n", loaded.ID, loaded.ShippedNotified)

			// Suppression: the same transition under a suppression scope
			// dispatches nothing.
			loaded.Status = demo.OrderClosed
			err = engine.Suppress(loaded, func() error {
				return st.SaveOrder(ctx, loaded)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "order %s closed silently\n", loaded.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	return cmd
}
