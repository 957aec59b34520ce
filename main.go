package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/antibyte/zen/pkg/auth"
	"github.com/antibyte/zen/pkg/configuration"
	"github.com/antibyte/zen/pkg/history"
	"github.com/antibyte/zen/pkg/logger"
	"github.com/antibyte/zen/pkg/runner"
	"github.com/antibyte/zen/pkg/terminal"
	tlsmanager "github.com/antibyte/zen/pkg/tls"
)

const usage = `usage:
  zen [-config zen.cfg] [-time] [-record] [-watch] <script> [args...]
  zen -serve [addr]          run the websocket endpoint
  zen -history N             list the last N recorded runs
  zen -issue-token SUBJECT   print a signed token for the endpoint
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("zen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	configPath := fs.String("config", configuration.DefaultPath, "configuration file")
	showTime := fs.Bool("time", false, "print the execution time")
	record := fs.Bool("record", false, "record the run in the history database")
	watch := fs.Bool("watch", false, "run again whenever the script changes")
	serve := fs.Bool("serve", false, "serve runs over a websocket")
	historyN := fs.Int("history", 0, "list the last N recorded runs")
	issueToken := fs.String("issue-token", "", "print a signed token for SUBJECT")

	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	scriptMode := !*serve && *historyN <= 0 && *issueToken == ""
	if scriptMode && fs.NArg() < 1 {
		fs.Usage()
		return 1
	}

	// Configuration comes first; everything else reads from it.
	if err := configuration.Initialize(*configPath); err != nil {
		fmt.Fprintf(stderr, "zen: error initializing configuration: %v\n", err)
		return 1
	}
	if err := logger.Initialize(); err != nil {
		fmt.Fprintf(stderr, "zen: error initializing logger: %v\n", err)
		return 1
	}
	defer logger.Close()
	logger.Info(logger.AreaConfig, "Configuration loaded from %s", *configPath)

	switch {
	case *issueToken != "":
		token, err := auth.GenerateToken(*issueToken)
		if err != nil {
			fmt.Fprintf(stderr, "zen: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, token)
		return 0

	case *historyN > 0:
		journal, err := history.OpenConfigured()
		if err != nil {
			fmt.Fprintf(stderr, "zen: %v\n", err)
			return 1
		}
		defer journal.Close()
		if err := runner.PrintHistory(ctx, journal, *historyN, stdout); err != nil {
			fmt.Fprintf(stderr, "zen: %v\n", err)
			return 1
		}
		return 0

	case *serve:
		return serveEndpoint(ctx, fs.Arg(0), stderr)
	}

	cfg := runner.ConfigFromSettings()
	cfg.Args = fs.Args()[1:]
	cfg.Stdout = stdout
	cfg.Stderr = stderr
	if *showTime {
		cfg.Timing = true
	}
	if *record || configuration.GetBool("History", "enabled", false) {
		journal, err := history.OpenConfigured()
		if err != nil {
			// A broken journal must not keep the script from running.
			fmt.Fprintf(stderr, "zen: history disabled: %v\n", err)
		} else {
			defer journal.Close()
			cfg.Recorder = journal
		}
	}

	script := fs.Arg(0)
	if *watch {
		if err := runner.Watch(ctx, script, cfg); err != nil {
			fmt.Fprintf(stderr, "zen: %v\n", err)
			return 1
		}
		return 0
	}

	if _, err := runner.RunFile(ctx, script, cfg); err != nil {
		fmt.Fprintf(stderr, "zen: %v\n", err)
		return 1
	}
	return 0
}

func serveEndpoint(ctx context.Context, addr string, stderr io.Writer) int {
	if addr == "" {
		addr = configuration.GetString("Server", "listen", ":8080")
	}

	var journal *history.Journal
	if configuration.GetBool("History", "enabled", false) {
		j, err := history.OpenConfigured()
		if err != nil {
			fmt.Fprintf(stderr, "zen: history disabled: %v\n", err)
		} else {
			defer j.Close()
			journal = j
		}
	}

	tlsManager, err := tlsmanager.NewTLSManager(tlsmanager.SettingsFromConfig())
	if err != nil {
		fmt.Fprintf(stderr, "zen: %v\n", err)
		return 1
	}
	if helper := tlsManager.HTTPHandler(); helper != nil {
		// ACME challenges and the HTTPS redirect run beside the main server.
		go func() {
			if err := terminal.ListenAndServe(ctx, tlsManager.HTTPAddr(), helper, nil); err != nil {
				logger.Error(logger.AreaServer, "HTTP helper on %s failed: %v", tlsManager.HTTPAddr(), err)
			}
		}()
	}

	requireToken := configuration.GetBool("JWT", "require_token", false)
	handler := terminal.NewHandler(journal)
	defer handler.Shutdown()

	fmt.Fprintf(stderr, "zen: serving on %s (tls: %t, token required: %t)\n", addr, tlsManager.IsEnabled(), requireToken)
	if err := terminal.ListenAndServe(ctx, addr, terminal.NewMux(handler, requireToken), tlsManager.TLSConfig()); err != nil {
		fmt.Fprintf(stderr, "zen: %v\n", err)
		return 1
	}
	return 0
}
