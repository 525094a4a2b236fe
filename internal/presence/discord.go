package presence

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/five82/osuradio/internal/discord"
)

// DiscordDialer connects to the chat client over its local IPC endpoint.
type DiscordDialer struct {
	Logger zerolog.Logger
}

var _ Dialer = DiscordDialer{}

// Dial implements Dialer.
func (d DiscordDialer) Dial(ctx context.Context, clientID string, h Handlers) (Session, error) {
	conn, err := discord.Dial(ctx, clientID, discord.Options{
		Logger: d.Logger,
		OnReady: func(discord.User) {
			if h.Ready != nil {
				h.Ready()
			}
		},
		OnDisconnect: func(err error) {
			if h.Disconnected != nil {
				h.Disconnected(err)
			}
		},
	})
	if err != nil {
		return nil, err
	}
	return discordSession{conn: conn}, nil
}

type discordSession struct {
	conn *discord.Conn
}

func (s discordSession) SetActivity(ctx context.Context, p Payload) error {
	return s.conn.SetActivity(ctx, p.Activity())
}

func (s discordSession) Close() error {
	return s.conn.Close()
}

// Activity converts the payload to the IPC wire document.
func (p Payload) Activity() *discord.Activity {
	a := &discord.Activity{
		Details: p.Details,
		State:   p.State,
		Type:    p.Type,
	}
	if p.HasTimestamps() {
		a.Timestamps = &discord.Timestamps{
			Start: p.StartTimestamp * 1000,
			End:   p.EndTimestamp * 1000,
		}
	}
	if p.LargeImageKey != "" || p.LargeImageText != "" {
		a.Assets = &discord.Assets{
			LargeImage: p.LargeImageKey,
			LargeText:  p.LargeImageText,
		}
	}
	for i, b := range p.Buttons {
		if i == discord.MaxButtons {
			break
		}
		a.Buttons = append(a.Buttons, discord.Button{Label: b.Label, URL: b.URL})
	}
	return a
}
