// Package config loads the osuradio TOML configuration.
//
// # Resolution Order
//
//  1. Hardcoded defaults (see Default)
//  2. ~/.config/osuradio/config.toml, or the path passed to Load
//  3. Environment overrides: DISCORD_CLIENT_ID, DISCORD_SHOW_BUTTONS,
//     OSURADIO_OSU_DIR, OSURADIO_LISTEN
//
// Command line flags are applied by the caller after Load returns.
// A missing config file is not an error.
//
// # TOML Format
//
//	listen = "127.0.0.1:3000"
//	osu_dir = "~/osu!"
//	log_dir = "~/.local/share/osuradio/logs"
//
//	[presence]
//	client_id = "1037879885772890232"
//	show_buttons = false
//	connect_timeout = "10s"
//	debounce = "100ms"
//
//	[mpd]
//	enabled = false
//	address = "127.0.0.1:6600"
//
// Durations use Go duration syntax and must be positive. Tilde expansion is
// applied to every path field.
package config
