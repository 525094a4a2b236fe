package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/five82/osuradio/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	flags := pflag.NewFlagSet("osuradio", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "config file (default ~/.config/osuradio/config.toml)")
	listen := flags.StringP("listen", "l", "", "API listen address, host:port")
	osuDir := flags.String("osu-dir", "", "osu! install directory containing Songs/")
	logLevel := flags.String("log-level", "", "log level: debug, info, warn, error")
	likesPath := flags.String("likes", "", "liked songs file (default ~/.local/share/osuradio/likes.toml)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintf(os.Stderr, "osuradio: %v\n", err)
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := app.Serve(ctx, app.DaemonOptions{
		ConfigPath: *configPath,
		Listen:     *listen,
		OsuDir:     *osuDir,
		LogLevel:   *logLevel,
		LikesPath:  *likesPath,
		Console:    os.Stderr,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "osuradio: %v\n", err)
		return 1
	}
	return 0
}
