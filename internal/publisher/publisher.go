package publisher

import (
	"context"
	"io"
	"log"
	"math/rand/v2"
	"strconv"
	"time"

	"bachbot/internal/catalog"
	"bachbot/internal/composer"
	"bachbot/internal/config"
	"bachbot/internal/mastodon"
	"bachbot/internal/metrics"
	"bachbot/internal/util"
)

var NilLogger = log.New(io.Discard, "", 0)

type Identity struct {
	Username    string `json:"username"`
	Acct        string `json:"acct"`
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`
}

type Receipt struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Poster is the part of a Mastodon connection the bot flow needs.
type Poster interface {
	TestConnection(ctx context.Context) (Identity, error)
	Publish(ctx context.Context, text string) (Receipt, error)
}

// Client is an authenticated Mastodon connection. Obtain one with Connect.
type Client struct {
	api    *mastodon.Client
	logger *log.Logger
}

// Connect builds a client from cfg. When any credential is missing it logs
// the fact and returns a KindCredentials error; nothing is sent.
func Connect(cfg config.Config, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Default()
	}
	if !cfg.HasCredentials() {
		logger.Printf("%s Mastodon credentials not configured. Please update the config file.", util.Yellow("[BOT]"))
		return nil, wrap(KindCredentials, "connect", ErrCredentialsIncomplete)
	}
	api := mastodon.NewClient(cfg.Mastodon.InstanceURL, cfg.Mastodon.AccessToken, logger)
	logger.Printf("%s Mastodon API connection established (%s, token %s).",
		util.Green("[BOT]"), util.Blue(cfg.Mastodon.InstanceURL), util.Gray(util.Mask(cfg.Mastodon.AccessToken)))
	return &Client{api: api, logger: logger}, nil
}

func (c *Client) TestConnection(ctx context.Context) (Identity, error) {
	acct, err := c.api.VerifyCredentials(ctx)
	if err != nil {
		metrics.ConnectionTestsTotal.WithLabelValues("error").Inc()
		return Identity{}, wrap(KindConnection, "test connection", err)
	}
	metrics.ConnectionTestsTotal.WithLabelValues("success").Inc()
	return Identity{
		Username:    acct.Username,
		Acct:        acct.Acct,
		DisplayName: acct.DisplayName,
		URL:         acct.URL,
	}, nil
}

// Publish submits text verbatim. There is no retry.
func (c *Client) Publish(ctx context.Context, text string) (Receipt, error) {
	st, err := c.api.PostStatus(ctx, text)
	if err != nil {
		return Receipt{}, wrap(KindConnection, "publish", err)
	}
	return Receipt{
		ID:        st.ID,
		URL:       st.URL,
		Text:      mastodon.PlainText(st.Content),
		CreatedAt: st.CreatedAt,
	}, nil
}

type Options struct {
	// Rand overrides the source used to draw the catalog id.
	Rand   *rand.Rand
	Logger *log.Logger
}

func (o Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.Default()
	}
	return o.Logger
}

// Result is the outcome of one pass of the daily flow.
type Result struct {
	Identity Identity
	Post     composer.Post
	Receipt  Receipt
	Posted   bool
	Err      error
}

func (r Result) Kind() Kind { return KindOf(r.Err) }

// Preview composes a post for a freshly drawn id without contacting the
// instance.
func Preview(cfg config.Config, r *rand.Rand) composer.Post {
	return composer.Compose(cfg.YouTube.SearchBaseURL, catalog.RandomID(r))
}

// RunDaily tests the connection and, if that works, posts one random work.
func RunDaily(ctx context.Context, p Poster, cfg config.Config, opts Options) Result {
	logger := opts.logger()
	var res Result

	ident, err := p.TestConnection(ctx)
	if err != nil {
		logger.Printf("  %s Error testing connection: %v", util.RedBold("!!! ERROR"), err)
		res.Err = err
		metrics.PostsTotal.WithLabelValues("error").Inc()
		return res
	}
	res.Identity = ident
	logger.Printf("%s Connected to Mastodon as: %s", util.Green("[BOT]"), util.Blue("@"+ident.Username))

	return publish(ctx, p, cfg, opts, res)
}

// PostNow posts one random work without the connection test first.
func PostNow(ctx context.Context, p Poster, cfg config.Config, opts Options) Result {
	return publish(ctx, p, cfg, opts, Result{})
}

func publish(ctx context.Context, p Poster, cfg config.Config, opts Options, res Result) Result {
	logger := opts.logger()

	res.Post = Preview(cfg, opts.Rand)
	title := res.Post.Entry.Title
	logger.Printf("%s Drew %s", util.Purple("[CATALOG]"),
		util.Iif(res.Post.Entry.Known(), util.CyanBold(title), util.Cyan(title)))

	receipt, err := p.Publish(ctx, res.Post.Text)
	if err != nil {
		logger.Printf("  %s Error posting to Mastodon: %v", util.RedBold("!!! ERROR"), err)
		res.Err = err
		metrics.PostsTotal.WithLabelValues("error").Inc()
		return res
	}
	res.Receipt = receipt
	res.Posted = true
	metrics.PostsTotal.WithLabelValues("success").Inc()

	logger.Printf("%s Successfully posted BWV %s to Mastodon!", util.GreenBold("[BOT]"), strconv.Itoa(res.Post.Entry.ID))
	logger.Printf("%s Post URL: %s", util.Green("[BOT]"), receipt.URL)
	logger.Printf("%s Post text:\n%s", util.Green("[BOT]"), res.Post.Text)
	return res
}
