// Aria - voice assistant with a dual-channel response pipeline.
// Quick answers speak through the live voice session; delegated research
// is synthesized separately so long answers never block the conversation.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lumenrobotics/go-aria/internal/log"
	"github.com/lumenrobotics/go-aria/pkg/assistant"
)

func main() {
	cfg := parseFlags()
	log.Init(logLevel(cfg.Debug))

	app, err := assistant.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := app.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "initialization failed: %v\n", err)
		os.Exit(1)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		app.Shutdown()
		fmt.Fprintf(os.Stderr, "runtime error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags parses command line flags and returns configuration.
func parseFlags() assistant.Config {
	cfg := assistant.DefaultConfig()

	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	port := flag.String("port", cfg.DashboardPort, "Dashboard port (empty disables the dashboard)")
	voiceID := flag.String("voice", "", "Hume voice ID for delegated-answer synthesis")
	player := flag.String("player", "", "Playback command receiving raw PCM on stdin")
	flag.Parse()

	cfg.Debug = *debug
	cfg.DashboardPort = *port
	if *player != "" {
		cfg.PlaybackCommand = strings.Fields(*player)
	}

	cfg.LoadEnvConfig()
	if *voiceID != "" {
		cfg.HumeVoiceID = *voiceID
	}
	return cfg
}

func logLevel(debug bool) string {
	if debug {
		return "debug"
	}
	return "info"
}
