package publisher

import (
	"context"
	"log"
	"math/rand/v2"

	"bachbot/internal/composer"
	"bachbot/internal/config"
)

// Connector opens a Poster for cfg.
type Connector func(cfg config.Config, logger *log.Logger) (Poster, error)

// ConnectPoster is the Connector backed by a real Mastodon client.
func ConnectPoster(cfg config.Config, logger *log.Logger) (Poster, error) {
	c, err := Connect(cfg, logger)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Bot reloads the config on every call, so edits saved from the dashboard
// take effect on the next operation.
type Bot struct {
	store   *config.Store
	connect Connector
	logger  *log.Logger
	rand    *rand.Rand
}

func NewBot(store *config.Store, connect Connector, logger *log.Logger) *Bot {
	if connect == nil {
		connect = ConnectPoster
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Bot{store: store, connect: connect, logger: logger}
}

// WithRand fixes the random source, for reproducible draws.
func (b *Bot) WithRand(r *rand.Rand) *Bot {
	b.rand = r
	return b
}

func (b *Bot) Store() *config.Store { return b.store }

func (b *Bot) Config() (config.Config, error) {
	cfg, err := b.store.Load()
	if err != nil {
		return config.Config{}, wrap(KindConfig, "load config", err)
	}
	return cfg, nil
}

func (b *Bot) open() (config.Config, Poster, error) {
	cfg, err := b.Config()
	if err != nil {
		return cfg, nil, err
	}
	p, err := b.connect(cfg, b.logger)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, p, nil
}

func (b *Bot) options() Options {
	return Options{Rand: b.rand, Logger: b.logger}
}

func (b *Bot) TestConnection(ctx context.Context) (Identity, error) {
	_, p, err := b.open()
	if err != nil {
		return Identity{}, err
	}
	return p.TestConnection(ctx)
}

// Run is the scheduled flow: connection test, then one post.
func (b *Bot) Run(ctx context.Context) Result {
	cfg, p, err := b.open()
	if err != nil {
		return Result{Err: err}
	}
	return RunDaily(ctx, p, cfg, b.options())
}

func (b *Bot) PostNow(ctx context.Context) Result {
	cfg, p, err := b.open()
	if err != nil {
		return Result{Err: err}
	}
	return PostNow(ctx, p, cfg, b.options())
}

func (b *Bot) Preview() (composer.Post, error) {
	cfg, err := b.Config()
	if err != nil {
		return composer.Post{}, err
	}
	return Preview(cfg, b.rand), nil
}
