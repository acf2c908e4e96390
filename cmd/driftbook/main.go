package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rickgao/driftbook/internal/book"
	"github.com/rickgao/driftbook/internal/cache"
	"github.com/rickgao/driftbook/internal/config"
	"github.com/rickgao/driftbook/internal/logging"
	"github.com/rickgao/driftbook/internal/processor"
	"github.com/rickgao/driftbook/internal/session"
	"github.com/rickgao/driftbook/internal/trades"
	"github.com/rickgao/driftbook/internal/urlnorm"
	"github.com/rickgao/driftbook/internal/version"
	"github.com/rickgao/driftbook/internal/wsconn"
)

// subscribeFrame is the exchange's channel-subscribe wire message, sent
// once per connection open (including after every reconnect).
type subscribeFrame struct {
	Type     string        `json:"type"`
	Channels []channelSpec `json:"channels"`
}

type channelSpec struct {
	Name       string   `json:"name"`
	ProductIDs []string `json:"product_ids"`
}

func main() {
	var (
		showVersion = flag.Bool("V", false, "print version and exit")
		showHelp    = flag.Bool("h", false, "print usage and exit")
		configPath  = flag.String("config", "configs/driftbook.local.yaml", "path to config file")
		verbosity   int
	)
	flag.BoolVar(showVersion, "version", false, "print version and exit")
	flag.BoolVar(showHelp, "help", false, "print usage and exit")
	raiseVerbosity := func(string) error {
		verbosity++
		return nil
	}
	flag.BoolFunc("v", "increase log verbosity (repeatable)", raiseVerbosity)
	flag.BoolFunc("verbose", "increase log verbosity (repeatable)", raiseVerbosity)
	flag.CommandLine.Init(os.Args[0], flag.ContinueOnError)
	if err := flag.CommandLine.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		fmt.Println("driftbook v" + version.Version)
		os.Exit(0)
	}

	os.Exit(run(*configPath, verbosity))
}

func run(configPath string, verbosity int) int {
	log := logging.New(logging.LevelInfo)
	entry := log.WithComponent("driftbook")
	for i := 0; i < verbosity; i++ {
		log.RaiseLevel()
	}

	entry.WithFields(logging.Fields{
		"version": version.Version,
		"commit":  version.Commit,
		"config":  configPath,
	}).Info("starting driftbook")

	cfg, err := config.LoadAndValidate(configPath)
	if err != nil {
		entry.WithError(err).Critical("failed to load config")
		return 1
	}

	if err := log.Configure(cfg.Logging.File, cfg.Logging.MaxSizeMB, cfg.Logging.MaxBackups); err != nil {
		entry.WithError(err).Critical("failed to configure logging")
		return 1
	}

	wsURL, err := urlnorm.Normalize(cfg.Exchange.WSURL)
	if err != nil {
		entry.WithError(err).Critical("invalid exchange.ws_url")
		return 1
	}

	cacheClient := cache.New(cfg.Cache.URL, cfg.Cache.Port)
	defer cacheClient.Close()

	if err := cache.Ping(context.Background(), cacheClient); err != nil {
		entry.WithError(err).Critical("failed to reach cache")
		return 1
	}

	proc := processor.New(book.New(), trades.New(), cacheClient, entry)

	channels := make([]channelSpec, len(cfg.Channels))
	for i, name := range cfg.Channels {
		channels[i] = channelSpec{Name: name, ProductIDs: cfg.Products}
	}
	frame, err := json.Marshal(subscribeFrame{
		Type:     "subscribe",
		Channels: channels,
	})
	if err != nil {
		entry.WithError(err).Critical("failed to build subscribe frame")
		return 1
	}

	sess := session.New(entry, wsconn.DefaultRetryPolicy())
	sess.WsWithOnOpen(wsURL, proc.Handle, func(h *session.Handle) {
		if sendErr := h.Send(frame); sendErr != nil {
			entry.WithCategory("wsconn").WithError(sendErr).Error("failed to send subscribe frame")
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 2)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGHUP)

	status := sess.Run(ctx, sig)
	entry.WithFields(logging.Fields{"status": status.String()}).Info("driftbook stopped")

	if status == session.StatusForcedShutdown {
		return 1
	}
	return 0
}
