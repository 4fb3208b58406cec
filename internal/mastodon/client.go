package mastodon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"bachbot/internal/util"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const UserAgent = "bachbot/1.0 (+https://github.com/bachbot)"

var NilLogger = log.New(io.Discard, "", 0)

var ErrUnauthorized = errors.New("mastodon rejected the credentials")

type Account struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Acct        string `json:"acct"`
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`
}

type Status struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	URI        string    `json:"uri"`
	Content    string    `json:"content"`
	Visibility string    `json:"visibility"`
	CreatedAt  time.Time `json:"created_at"`
}

// APIError is a non-2xx answer from the instance.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("mastodon API error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("mastodon API error: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type Client struct {
	resty  *resty.Client
	logger *log.Logger
}

// NewClient returns a client that sends accessToken as a bearer token to
// every endpoint under instanceURL.
func NewClient(instanceURL, accessToken string, appLogger *log.Logger) *Client {
	if appLogger == nil {
		appLogger = log.Default()
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(context.Background(), ts)
	return &Client{resty: newResty(httpClient, instanceURL, appLogger), logger: appLogger}
}

func newResty(httpClient *http.Client, instanceURL string, logger *log.Logger) *resty.Client {
	return resty.NewWithClient(httpClient).
		SetBaseURL(strings.TrimSuffix(instanceURL, "/")).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", UserAgent).
		OnError(func(req *resty.Request, err error) {
			errMsg := fmt.Sprintf("API Request Error. URL: %s, Method: %s", req.URL, req.Method)
			if err != nil {
				logger.Printf("  %s %s | Error: %v", util.RedBold("[MASTODON HTTP ERR]"), errMsg, err)
			} else {
				logger.Printf("  %s %s | Unknown Error (err is nil)", util.RedBold("[MASTODON HTTP ERR]"), errMsg)
			}
		})
}

func (c *Client) GetLogger() *log.Logger {
	if c.logger == nil {
		return NilLogger
	}
	return c.logger
}

// VerifyCredentials fetches the account the access token belongs to.
func (c *Client) VerifyCredentials(ctx context.Context) (*Account, error) {
	var acct Account
	resp, err := c.resty.R().
		SetContext(ctx).
		SetResult(&acct).
		SetError(&errorBody{}).
		Get("/api/v1/accounts/verify_credentials")
	if err != nil {
		return nil, fmt.Errorf("failed to request account verification: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("verify credentials: %w", apiError(resp))
	}

	c.GetLogger().Printf("  %s Authenticated as %s",
		util.Cyan("[MASTODON]"),
		util.Blue("@"+acct.Acct))
	return &acct, nil
}

// PostStatus publishes text as a new public status. A fresh Idempotency-Key
// is sent so a duplicated request does not double-post.
func (c *Client) PostStatus(ctx context.Context, text string) (*Status, error) {
	var status Status
	resp, err := c.resty.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", uuid.NewString()).
		SetFormData(map[string]string{"status": text}).
		SetResult(&status).
		SetError(&errorBody{}).
		Post("/api/v1/statuses")
	if err != nil {
		return nil, fmt.Errorf("failed to send status: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("post status: %w", apiError(resp))
	}

	c.GetLogger().Printf("    └─ %s Status: %s (id %s)", util.Cyan("[MASTODON]"), util.Green("Posted"), status.ID)
	return &status, nil
}

func apiError(resp *resty.Response) *APIError {
	e := &APIError{StatusCode: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		e.Message = body.Error
		if body.ErrorDescription != "" {
			e.Message = body.ErrorDescription
		}
	}
	if e.Message == "" {
		if s := strings.TrimSpace(resp.String()); len(s) > 0 && len(s) < 500 {
			e.Message = s
		}
	}
	return e
}
