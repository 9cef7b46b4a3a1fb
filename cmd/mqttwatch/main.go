// Mqttwatch is a rule-driven MQTT event processor.
//
// It subscribes to configured MQTT topics, decodes each payload as
// JSON, evaluates the declared rules against it, and dispatches
// notifications (log, mail, SMS) when rules fire. Configuration is a
// single JSON document located by the CONFIG_FILE environment variable
// (see [config.DefaultPath]).
//
// Usage:
//
//	mqttwatch serve              Connect and start watching
//	mqttwatch validate           Load and validate the configuration
//	mqttwatch version            Print version and build information
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nugget/mqttwatch/internal/buildinfo"
	"github.com/nugget/mqttwatch/internal/config"
	"github.com/nugget/mqttwatch/internal/metrics"
	"github.com/nugget/mqttwatch/internal/notify"
	"github.com/nugget/mqttwatch/internal/store"
	"github.com/nugget/mqttwatch/internal/watch"
)

// main is intentionally minimal. It constructs the OS-level
// environment and delegates to [run] so the full startup-to-shutdown
// lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point. Arguments are parsed by hand: the flag
// package relies on package-level globals, which makes it impossible
// to call run() concurrently from tests, and the argument surface here
// is tiny.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var command string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	if configPath == "" {
		configPath = config.DefaultPath()
	}

	switch command {
	case "serve":
		return runServe(ctx, configPath)
	case "validate":
		return runValidate(stdout, configPath)
	case "version":
		fmt.Fprintln(stdout, buildinfo.String())
		info := buildinfo.Info()
		for _, k := range []string{"go_version", "os", "arch"} {
			fmt.Fprintf(stdout, "  %s: %s\n", k, info[k])
		}
		return nil
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "mqttwatch - rule-driven MQTT event processor")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: mqttwatch [flags] <command>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve        Connect to the broker and start watching")
	fmt.Fprintln(w, "  validate     Load and validate the configuration, then exit")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: $CONFIG_FILE)")
	return nil
}

// runValidate loads the config and prints a summary. A configuration
// error surfaces as a non-zero exit through main.
func runValidate(w io.Writer, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	enabled := 0
	events := 0
	for _, ws := range cfg.WatchList {
		if ws.Enabled {
			enabled++
		}
		events += len(ws.Events)
	}
	recipients := 0
	for _, list := range cfg.NotificationList {
		recipients += len(list.Recipients)
	}

	fmt.Fprintf(w, "%s: ok\n", path)
	fmt.Fprintf(w, "  watches:     %d (%d enabled)\n", len(cfg.WatchList), enabled)
	fmt.Fprintf(w, "  events:      %d\n", events)
	fmt.Fprintf(w, "  recipients:  %d in %d lists\n", recipients, len(cfg.NotificationList))
	return nil
}

// runServe is the long-running mode: build the dispatcher and watcher
// set, connect, and stay up until SIGINT/SIGTERM. A config file change
// tears the watchers down and rebuilds them; the global store survives
// reloads.
func runServe(ctx context.Context, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	logger.Info("starting", "version", buildinfo.Version, "config", path)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		go metrics.Serve(ctx, cfg.Metrics.Address, logger)
	}

	st := store.New()

	reloadCh := make(chan *config.Config, 1)
	cw := config.NewWatcher(path, func(c *config.Config) {
		select {
		case reloadCh <- c:
		default:
		}
	}, logger)
	go func() {
		if err := cw.Run(ctx); err != nil {
			logger.Warn("config watcher stopped", "error", err)
		}
	}()

	for {
		var mail notify.MailSender
		if cfg.MessageService.Mail.Host != "" {
			mail = notify.NewMailer(cfg.MessageService.Mail)
		}
		sms := notify.NewSMSClient(cfg.MessageService.SMS, logger)

		dispatcher := notify.NewDispatcher(mail, sms, logger)
		dispatcher.LoadLists(cfg.NotificationList)

		supervisor := watch.NewSupervisor(cfg, st, dispatcher, logger)
		runCtx, cancel := context.WithCancel(ctx)
		if err := supervisor.Start(runCtx, cfg.MQTT); err != nil {
			cancel()
			return err
		}

		select {
		case <-ctx.Done():
			cancel()
			supervisor.Stop()
			dispatcher.Wait()
			logger.Info("shutting down on signal")
			return nil

		case newCfg := <-reloadCh:
			cancel()
			supervisor.Stop()
			dispatcher.Wait()
			cfg = newCfg
			logger.Info("configuration reloaded, watchers restarting")
		}
	}
}
