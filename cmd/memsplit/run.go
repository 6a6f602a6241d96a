//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"memsplit/autosplitter"
	"memsplit/config"
	"memsplit/livesplit"
	"memsplit/process"
	"memsplit/route"
	"memsplit/sigcache"
	"memsplit/splitter"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/rs/xid"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

const reattachDelay = 2 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Track the game and drive the LiveSplit timer.",
	Long: "`run --route splits.yaml` attaches to the game, serves the LiveSplit " +
		"websocket and splits along the route until interrupted. When the game " +
		"exits it waits for the next instance.",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if flags.Changed("pid") {
			cfg.PID, _ = flags.GetInt("pid")
		}
		if flags.Changed("name") {
			cfg.ProcessName, _ = flags.GetString("name")
		}
		if flags.Changed("listen") {
			cfg.Listen, _ = flags.GetString("listen")
		}
		if flags.Changed("route") {
			cfg.RouteFile, _ = flags.GetString("route")
		}
		if flags.Changed("single-client") {
			cfg.SingleClient, _ = flags.GetBool("single-client")
		}
		if cfg.RouteFile == "" {
			return errors.New("a route file is required (--route or route-file)")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx)
	},
}

func run(ctx context.Context) error {
	session := xid.New().String()
	log := logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "memsplit-"+session))

	r, err := route.Load(cfg.RouteFile)
	if err != nil {
		return err
	}
	log.Infoln("Loaded route", cfg.RouteFile, "with", len(r.Entries), "entries")

	store, err := sigcache.Open(cfg.SignatureCache)
	if err != nil {
		return err
	}
	atexit.Register(func() { store.Close() })

	opts, err := trackerOptions(cfg, store)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	server := livesplit.NewServer(cfg.SingleClient)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe(ctx, cfg.Listen)
		cancel()
	}()

	for ctx.Err() == nil {
		err := track(ctx, r, server, opts, session)
		if err == nil || ctx.Err() != nil {
			break
		}
		if forgetExited(cfg, err) {
			log.Infoln("Game exited, waiting for it to come back")
		} else {
			log.Warn("Attach failed: ", err)
		}

		select {
		case <-ctx.Done():
		case <-time.After(reattachDelay):
		}
	}

	cancel()
	if err := <-serveErr; err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("livesplit server: %w", err)
	}
	return nil
}

// forgetExited clears the pid once its process is gone. A pid only names one instance; the next
// one is found by name. Other failures keep the target so an explicit pid is retried.
func forgetExited(c *config.Config, err error) bool {
	if !errors.Is(err, process.ErrProcessExited) {
		return false
	}
	c.PID = 0
	return true
}

// track follows one game instance until it exits or ctx is done
func track(ctx context.Context, r route.Route, sink splitter.TimerSink, opts autosplitter.TrackerOptions, session string) error {
	proc, err := attach(cfg)
	if err != nil {
		return err
	}
	defer proc.Close()

	tracker, err := autosplitter.NewTracker(proc, opts)
	if err != nil {
		return err
	}
	return splitter.New(tracker, r, sink, session).Run(ctx, cfg.PollInterval)
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Int("pid", 0, "attach to this process id instead of looking the game up by name; after it exits the game is looked up by name")
	runCmd.Flags().String("name", "", "game process name")
	runCmd.Flags().String("listen", "", "LiveSplit websocket listen address")
	runCmd.Flags().String("route", "", "route file (YAML or JSON)")
	runCmd.Flags().Bool("single-client", false, "keep only the most recent LiveSplit connection")
}
