package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vitalwatch/vitalwatch/internal/aggregate"
	"github.com/vitalwatch/vitalwatch/internal/config"
	"github.com/vitalwatch/vitalwatch/internal/fanout"
	"github.com/vitalwatch/vitalwatch/internal/gateway"
	"github.com/vitalwatch/vitalwatch/internal/insight"
	"github.com/vitalwatch/vitalwatch/internal/notify"
	"github.com/vitalwatch/vitalwatch/internal/provider"
	"github.com/vitalwatch/vitalwatch/internal/scheduler"
	"github.com/vitalwatch/vitalwatch/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway, streams and scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		printHeader("📡 VitalWatch Serve")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		dbPath, err := config.ExpandHome(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("resolve store path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		prov := provider.Resolve(cfg.Providers.Gemini)
		if prov == nil {
			slog.Info("No AI provider configured, using fallback insights")
		}
		req := insight.NewRequester(prov)

		agg := aggregate.New(st, req)
		agg.SetLookback(cfg.Stream.GlobalLookback, cfg.Stream.UserLookback)

		reg := fanout.NewRegistry(agg)
		defer reg.Close()

		hub := notify.NewHub(notify.LogNotifier{})
		if cfg.Notify.Slack.Enabled {
			hub.Add(notify.NewSlackNotifier(cfg.Notify.Slack))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Scheduler.Enabled {
			sched, err := scheduler.New(cfg.Scheduler, st, req, hub)
			if err != nil {
				return fmt.Errorf("scheduler: %w", err)
			}
			go sched.Run(ctx)
			fmt.Println("Scheduler started")
		}

		srv := gateway.New(cfg.Server, st, reg, req, version)
		srv.SetIntervals(cfg.Stream.GlobalInterval, cfg.Stream.UserInterval)

		fmt.Printf("Gateway listening on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("gateway: %w", err)
		}
		return nil
	},
}
