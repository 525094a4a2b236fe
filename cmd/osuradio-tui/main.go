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
	flags := pflag.NewFlagSet("osuradio-tui", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "config file (default ~/.config/osuradio/config.toml)")
	listen := flags.StringP("listen", "l", "", "daemon API address, host:port")
	prefsPath := flags.String("prefs", "", "TUI preferences file (default ~/.config/osuradio/tui.toml)")
	logLevel := flags.String("log-level", "", "log level: debug, info, warn, error")
	poll := flags.Duration("poll", 0, "refresh interval (default 2s)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintf(os.Stderr, "osuradio-tui: %v\n", err)
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := app.Run(ctx, app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		Listen:     *listen,
		LogLevel:   *logLevel,
		PollEvery:  *poll,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "osuradio-tui: %v\n", err)
		return 1
	}
	return 0
}
