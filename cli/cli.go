// Package cli is the vimy-zerg command line.
//
//	vimy-zerg run       serve game adapters on the unix socket
//	vimy-zerg validate  load the catalog and list its builds by stage
//	vimy-zerg plan      resolve one snapshot offline and print the pass
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"text/tabwriter"

	"github.com/nstehr/vimy/vimy-zerg/agent"
	"github.com/nstehr/vimy/vimy-zerg/build"
	"github.com/nstehr/vimy/vimy-zerg/config"
	"github.com/nstehr/vimy/vimy-zerg/dsl"
	"github.com/nstehr/vimy/vimy-zerg/ipc"
	"github.com/nstehr/vimy/vimy-zerg/metrics"
	"github.com/nstehr/vimy/vimy-zerg/model"
	"github.com/nstehr/vimy/vimy-zerg/resolver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const Version = "0.3.0"

var configFile string

func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vimy-zerg",
		Short: "Zerg build order resolution engine",
		Long: `vimy-zerg turns declarative Zerg build orders into per-tick
production targets for a game adapter connected over a unix socket.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (defaults when empty)")

	rootCmd.AddCommand(buildRunCommand())
	rootCmd.AddCommand(buildValidateCommand())
	rootCmd.AddCommand(buildPlanCommand())

	return rootCmd
}

// Execute runs the root command and reports a failure on stderr.
func Execute() int {
	if err := BuildCLI().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// loadCatalog reads the configured catalog files, or the embedded catalog
// when none are configured.
func loadCatalog(ctx context.Context, cfg *config.Config) (*build.Catalog, error) {
	var (
		cat *build.Catalog
		err error
	)
	if len(cfg.Catalog.Paths) == 0 {
		cat, err = dsl.Default()
	} else {
		cat, err = dsl.NewLoader().Load(ctx, cfg.Catalog.Paths...)
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if err := cfg.CheckOpenings(cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func buildRunCommand() *cobra.Command {
	var socket string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start serving game adapters",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if socket != "" {
				cfg.Agent.Socket = socket
			}
			slog.SetDefault(newLogger(cfg.Log.Level, cfg.Log.Format, os.Stdout))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&socket, "socket", "", "unix socket path (overrides agent.socket)")
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	cat, err := loadCatalog(ctx, cfg)
	if err != nil {
		return err
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		collector = metrics.NewCollector(reg)
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, reg); err != nil {
				slog.Error("metrics server failed", "addr", cfg.Metrics.Addr, "error", err)
			}
		}()
		slog.Info("metrics enabled", "addr", cfg.Metrics.Addr)
	}

	strategist := agent.NewStrategist(configFile, cfg)
	go func() {
		if err := strategist.Start(ctx); err != nil {
			slog.Error("config watcher failed", "error", err)
		}
	}()

	// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
	if err := os.RemoveAll(cfg.Agent.Socket); err != nil {
		return fmt.Errorf("clean up socket %s: %w", cfg.Agent.Socket, err)
	}
	ln, err := net.Listen("unix", cfg.Agent.Socket)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Agent.Socket, err)
	}
	defer os.Remove(cfg.Agent.Socket)

	slog.Info("listening on domain socket", "path", cfg.Agent.Socket, "builds", len(cat.IDs()))
	s := &server{
		deps: agent.Deps{
			Config:    cfg,
			Catalog:   cat,
			Reactions: strategist.Reactions,
			Collector: collector,
		},
		strategist: strategist,
	}
	return s.serve(ctx, ln)
}

type server struct {
	deps       agent.Deps
	strategist *agent.Strategist
}

// serve accepts adapters until ctx is cancelled, then closes the listener and
// waits for open sessions to finish.
func (s *server) serve(ctx context.Context, ln net.Listener) error {
	var wg sync.WaitGroup
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("shutting down")
				wg.Wait()
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				wg.Wait()
				return err
			}
			slog.Error("failed to accept connection", "error", err)
			continue
		}
		slog.Info("new connection accepted")
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

func (s *server) handle(ctx context.Context, conn net.Conn) {
	c := ipc.NewConnection(conn, nil)
	a, err := agent.New(c, s.deps)
	if err != nil {
		slog.Error("failed to create agent", "error", err)
		conn.Close()
		return
	}
	handlers := a.Handlers()
	hello := handlers[ipc.TypeHello]
	handlers[ipc.TypeHello] = func(env ipc.Envelope) (*ipc.Envelope, error) {
		resp, err := hello(env)
		c.Player = a.Player
		return resp, err
	}
	for msgType, h := range handlers {
		c.RegisterHandler(msgType, h)
	}

	if s.strategist != nil {
		s.strategist.Register(a.Engine)
		defer s.strategist.Unregister(a.Engine)
	}
	if s.deps.Collector != nil {
		s.deps.Collector.ConnectionOpened()
		defer s.deps.Collector.ConnectionClosed()
	}

	if err := c.ReadLoop(ctx); err != nil {
		slog.Error("session failed", "player", a.Player, "error", err)
		return
	}
	slog.Info("session ended", "player", a.Player)
}

func buildValidateCommand() *cobra.Command {
	var dump bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the config and build catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cat, err := loadCatalog(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if _, err := cfg.ReactionRules(); err != nil {
				return err
			}
			if dump {
				_, err := cmd.OutOrStdout().Write(dsl.DefaultSource())
				return err
			}
			printCatalog(cmd.OutOrStdout(), cat)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "print the embedded catalog source, a starting point for custom catalogs")
	return cmd
}

func printCatalog(w io.Writer, cat *build.Catalog) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STAGE\tBUILD\tNEXT\tFORCED")
	for _, stage := range build.Stages() {
		for _, id := range cat.IDs() {
			if cat.StageOf(id) != stage {
				continue
			}
			next, _ := cat.DefaultNextOf(id, "")
			forced := ""
			if cat.IsForcedDefault(id) {
				forced = "yes"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", stage, id, next, forced)
		}
	}
	tw.Flush()
}

func buildPlanCommand() *cobra.Command {
	var (
		stateFile string
		opening   string
		builds    map[string]string
		enemy     string
		batch     int
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Resolve one game state snapshot and print the pass",
		Long: `plan reads a JSON game state snapshot (as sent by the adapter) and runs
a single resolution pass against the given build stack.`,
		Example: `  vimy-zerg plan -s state.json --opening hatch_gas_pool --build early_game=ling_bane`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cat, err := loadCatalog(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			gs, err := readState(cmd.InOrStdin(), stateFile)
			if err != nil {
				return err
			}
			if enemy != "" {
				gs.EnemyRace = enemy
			}
			if opening == "" {
				opening = string(cfg.Opening(gs.EnemyRace))
			}
			if batch <= 0 {
				batch = cfg.Agent.Batch
			}

			stack := resolver.NewStack(cat)
			if _, err := stack.SetBuild(build.Opening, build.BuildID(opening)); err != nil {
				return err
			}
			// Slots fill in stage order whatever order the flags came in.
			later := make(map[build.Stage]build.BuildID, len(builds))
			for name, id := range builds {
				stage, err := build.ParseStage(name)
				if err != nil {
					return err
				}
				later[stage] = build.BuildID(id)
			}
			for _, stage := range build.Stages() {
				id, ok := later[stage]
				if !ok {
					continue
				}
				if _, err := stack.SetBuild(stage, id); err != nil {
					return err
				}
			}

			res := resolver.New(cat,
				resolver.WithSupplyRule(cfg.SupplyRule()),
				resolver.WithMineralRadius(cfg.Supply.MineralRadius),
			).Resolve(gs, stack, resolver.NewState(), batch)
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&stateFile, "state", "s", "-", "game state JSON file, - for stdin")
	cmd.Flags().StringVar(&opening, "opening", "", "opening build (config choice when empty)")
	cmd.Flags().StringToStringVar(&builds, "build", nil, "stage=build for later stages")
	cmd.Flags().StringVar(&enemy, "enemy", "", "enemy race override")
	cmd.Flags().IntVar(&batch, "batch", 0, "targets per pass (config value when 0)")
	return cmd
}

func readState(stdin io.Reader, path string) (model.GameState, error) {
	var gs model.GameState
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return gs, fmt.Errorf("open state: %w", err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&gs); err != nil {
		return gs, fmt.Errorf("decode state: %w", err)
	}
	return gs, nil
}

func printResult(w io.Writer, res resolver.Result) {
	if res.SupplyOverride {
		fmt.Fprintln(w, "supply override")
	}
	fmt.Fprintln(w, "targets:")
	for i, t := range res.Targets {
		fmt.Fprintf(w, "  %d. %s\n", i+1, t)
	}
	if len(res.Effects) > 0 {
		fmt.Fprintln(w, "effects:")
		for _, e := range res.Effects {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	if len(res.Deferred) > 0 {
		fmt.Fprintln(w, "deferred:")
		for _, d := range res.Deferred {
			fmt.Fprintf(w, "  %s (%s)\n", d.Target, d.Reason)
		}
	}
}
