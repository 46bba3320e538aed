package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/solenne/cadenza/internal/api"
	"github.com/solenne/cadenza/internal/config"
	"github.com/solenne/cadenza/internal/engine"
	"github.com/solenne/cadenza/internal/errmsg"
	"github.com/solenne/cadenza/internal/media"
	"github.com/solenne/cadenza/internal/push"
	"github.com/solenne/cadenza/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	store, err := session.Open()
	if err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpSessionLoad, err))
	}
	defer store.Close()

	sess, err := store.Get()
	if err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpSessionLoad, err))
	}

	userID, token, volume := cfg.UserID, cfg.Token, cfg.Volume
	if sess != nil {
		if userID == 0 {
			userID = sess.UserID
		}
		if token == "" {
			token = sess.Token
		}
		volume = sess.Volume
	}
	if userID == 0 || token == "" {
		return fmt.Errorf("no signed-in session: set user_id and token in the config or sign in first")
	}

	client := api.NewClient(cfg.ServerURL, &api.BearerTransport{Token: token})
	element := media.NewBeepElement()
	defer element.Close()
	channel := push.NewClient(cfg.WebsocketURL, logger)

	eng := engine.New(engine.Options{
		UserID:  userID,
		Player:  client,
		Queue:   client,
		Element: element,
		Channel: channel,
		BaseURL: client.BaseURL(),
		Logger:  logger,
	})
	defer eng.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sub := eng.Subscribe()
	go watch(sub, logger)

	if err := eng.Initialize(ctx); err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpInitialize, err))
	}
	eng.SetVolume(ctx, volume)

	logger.Info("player session running", "user", userID, "server", cfg.ServerURL)
	<-ctx.Done()

	local := eng.Local()
	if err := store.SaveVolume(local.Volume, local.IsMuted); err != nil {
		logger.Warn(errmsg.Format(errmsg.OpSessionSave, err))
	}
	return nil
}

// watch logs the engine's projections so a session is observable
// without a UI attached.
func watch(sub *engine.Subscription, logger *log.Logger) {
	for {
		select {
		case <-sub.Done:
			return
		case ev := <-sub.StateChanged:
			if ev.State == nil {
				logger.Info("playback stopped")
				continue
			}
			logger.Info("now playing",
				"track", ev.State.Title,
				"channel", ev.State.Channel,
				"playing", ev.State.IsPlaying,
				"queue", fmt.Sprintf("%d/%d", ev.State.QueueIndex+1, ev.State.QueueSize),
			)
		case ev := <-sub.ConnectionChanged:
			logger.Info("push channel", "connected", ev.Connected)
		case ev := <-sub.Error:
			logger.Error(errmsg.Format(errmsg.Op(ev.Operation), ev.Err))
		}
	}
}
