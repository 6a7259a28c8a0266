package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ircops/ircrelay/internal/config"
	"github.com/ircops/ircrelay/internal/dispatch"
	"github.com/ircops/ircrelay/internal/irc"
	"github.com/ircops/ircrelay/internal/metrics"
	"github.com/ircops/ircrelay/internal/sensor"
	"github.com/ircops/ircrelay/pkg/logger"
)

// Version information - set at build time via ldflags
var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

func main() {
	configPath := flag.String("c", "./config.yaml", "Path to configuration file")
	showVersion := flag.Bool("v", false, "Show version information and exit")
	showVersionLong := flag.Bool("version", false, "Show version information and exit")
	flag.Parse()

	if *showVersion || *showVersionLong {
		fmt.Printf("ircrelay version %s\n", version)
		fmt.Printf("Built: %s\n", buildDate)
		fmt.Printf("Commit: %s\n", gitCommit)
		os.Exit(0)
	}

	// Set version info in irc package
	irc.Version = version
	irc.BuildDate = buildDate
	irc.GitCommit = gitCommit

	run(*configPath)
}

func run(configPath string) {
	if !filepath.IsAbs(configPath) {
		wd, _ := os.Getwd()
		configPath = filepath.Join(wd, configPath)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg := logger.New(cfg.LogLevel, cfg.LogFile)

	sink, err := dispatch.FromConfig(cfg.Sink, logg)
	if err != nil {
		log.Fatalf("Failed to create dispatch sink: %v", err)
	}

	if cfg.MetricsAddr != "" {
		metrics.Serve(cfg.MetricsAddr, logg)
	}

	sn := sensor.New(cfg, sink, logg)
	sn.Setup()

	// Signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logg.Info("received signal, shutting down", "signal", sig.String())
		sn.Cleanup()
		os.Exit(0)
	}()

	logg.Info("connecting", "server", cfg.Server)
	if err := sn.Run(); err != nil {
		logg.Error("session ended", "error", err)
		sn.Cleanup()
		os.Exit(1)
	}
	logg.Info("session ended")
}
