// Package fcm implements the push delivery adapter on top of the FCM HTTP v1
// messaging API, authenticated with a Google service account.
package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"golang.org/x/sync/errgroup"

	"selinggonet_notification_service/internal/domain/push"
)

const (
	messagingScope = "https://www.googleapis.com/auth/firebase.messaging"

	// One multicast call sends to every token of one subscriber; the
	// per-token requests run concurrently but bounded.
	maxConcurrentSends = 8
)

// serviceAccount is the subset of the service-account JSON we need.
type serviceAccount struct {
	ProjectID   string `json:"project_id"`
	PrivateKey  string `json:"private_key"`
	ClientEmail string `json:"client_email"`
	TokenURI    string `json:"token_uri"`
}

// Client sends push notifications through FCM. A Client built from a missing
// or malformed credential is returned non-functional rather than failing the
// process: every SendMulticast call errors, and the reminder job counts
// those as per-subscriber failures.
type Client struct {
	httpClient *http.Client
	endpoint   string // messages:send URL, overridable in tests
	logger     *logrus.Logger
	initErr    error
}

// NewClient parses the service-account credential and prepares an
// authenticated HTTP client. credJSON commonly arrives through an
// environment variable with the private key's newlines escaped as the two
// characters '\' 'n'; they are unescaped here before the key is used.
func NewClient(ctx context.Context, credJSON string, logger *logrus.Logger) *Client {
	c := &Client{logger: logger}

	if credJSON == "" {
		c.initErr = fmt.Errorf("push credential not configured")
		logger.Error("FCM client disabled: FIREBASE_SERVICE_ACCOUNT_KEY is not set")
		return c
	}

	sa, err := parseServiceAccount(credJSON)
	if err != nil {
		c.initErr = fmt.Errorf("invalid push credential: %w", err)
		logger.Errorf("FCM client disabled: %v", err)
		return c
	}

	conf := &jwt.Config{
		Email:      sa.ClientEmail,
		PrivateKey: []byte(sa.PrivateKey),
		Scopes:     []string{messagingScope},
		TokenURL:   sa.TokenURI,
	}

	c.httpClient = conf.Client(ctx)
	c.endpoint = fmt.Sprintf("https://fcm.googleapis.com/v1/projects/%s/messages:send", sa.ProjectID)
	logger.Infof("FCM client initialized for project %s", sa.ProjectID)
	return c
}

// parseServiceAccount decodes the credential JSON and restores the literal
// newlines of the PEM block: the key commonly travels through environment
// variables with its newlines escaped as the two characters '\' 'n'.
func parseServiceAccount(credJSON string) (serviceAccount, error) {
	var sa serviceAccount
	if err := json.Unmarshal([]byte(credJSON), &sa); err != nil {
		return serviceAccount{}, fmt.Errorf("failed to parse service account JSON: %w", err)
	}
	if sa.ProjectID == "" || sa.PrivateKey == "" || sa.ClientEmail == "" {
		return serviceAccount{}, fmt.Errorf("service account missing project_id, private_key or client_email")
	}
	sa.PrivateKey = strings.ReplaceAll(sa.PrivateKey, `\n`, "\n")
	if sa.TokenURI == "" {
		sa.TokenURI = google.JWTTokenURL
	}
	return sa, nil
}

type sendRequest struct {
	Message message `json:"message"`
}

type message struct {
	Token        string           `json:"token"`
	Notification pushNotification `json:"notification"`
}

type pushNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// SendMulticast delivers one notification to every token and aggregates
// per-token outcomes, mirroring the provider's multicast response shape. The
// call errors as a whole only when the adapter is non-functional; individual
// token rejections are counted, not raised. Rejected tokens are left in
// storage untouched.
func (c *Client) SendMulticast(ctx context.Context, tokens []string, title, body string) (push.MulticastResult, error) {
	if c.initErr != nil {
		return push.MulticastResult{}, c.initErr
	}
	if len(tokens) == 0 {
		return push.MulticastResult{}, nil
	}

	var success, failure int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSends)

	for _, token := range tokens {
		token := token
		g.Go(func() error {
			if err := c.sendOne(gctx, token, title, body); err != nil {
				atomic.AddInt32(&failure, 1)
				c.logger.Warnf("FCM send failed for token %s...: %v", truncateToken(token), err)
			} else {
				atomic.AddInt32(&success, 1)
			}
			// Per-token failures must not cancel sibling sends.
			return nil
		})
	}
	_ = g.Wait()

	return push.MulticastResult{
		SuccessCount: int(atomic.LoadInt32(&success)),
		FailureCount: int(atomic.LoadInt32(&failure)),
	}, nil
}

func (c *Client) sendOne(ctx context.Context, token, title, body string) error {
	payload, err := json.Marshal(sendRequest{
		Message: message{
			Token:        token,
			Notification: pushNotification{Title: title, Body: body},
		},
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("FCM API error: %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}
	return nil
}

func truncateToken(token string) string {
	if len(token) > 12 {
		return token[:12]
	}
	return token
}
