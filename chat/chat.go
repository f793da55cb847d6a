package chat

import (
	"context"
	"log/slog"
	"strings"

	twitch "github.com/gempir/go-twitch-irc/v4"

	"github.com/onnwee/boot/bot"
	"github.com/onnwee/boot/config"
)

// Run connects to chat and bridges it to the dispatcher: incoming messages
// are normalized onto events, and the reply sink is drained in order via Say.
// It blocks until ctx is canceled or the connection fails.
func Run(ctx context.Context, cfg *config.Config, events chan<- bot.Event, replies <-chan bot.Reply) error {
	if err := cfg.ValidateChatReady(); err != nil {
		slog.Info("chat transport disabled", slog.Any("reason", err))
		return nil
	}

	client := twitch.NewClient(cfg.BotUsername, cfg.OAuthToken)

	send := func(ev bot.Event) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	client.OnPrivateMessage(func(msg twitch.PrivateMessage) {
		send(bot.Event{
			OwnNick: cfg.BotUsername,
			Source:  msg.User.Name,
			Target:  "#" + msg.Channel,
			Text:    msg.Message,
			Kind:    bot.EventMessage,
		})
	})
	client.OnUserPartMessage(func(msg twitch.UserPartMessage) {
		if msg.User == "" {
			return
		}
		send(bot.Event{
			OwnNick: cfg.BotUsername,
			Source:  msg.User,
			Target:  "#" + msg.Channel,
			Kind:    bot.EventQuit,
		})
	})

	// Drain the reply sink in submission order. One goroutine, one consumer:
	// replies from concurrent handler tasks interleave at task granularity
	// but individual tasks' lines never reorder.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case r, ok := <-replies:
				if !ok {
					return
				}
				client.Say(strings.TrimPrefix(r.Target, "#"), r.Text)
			}
		}
	}()

	go func() {
		<-ctx.Done()
		client.Disconnect()
	}()

	client.Join(cfg.Channel)
	slog.Info("chat transport connecting", slog.String("channel", cfg.Channel), slog.String("nick", cfg.BotUsername))
	if err := client.Connect(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
