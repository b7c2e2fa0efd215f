package payfast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mathotech/autopartshub-backend/pkg/config"
	"github.com/mathotech/autopartshub-backend/pkg/logger"
)

// Doer is the minimal HTTP surface the client depends on.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

var (
	errMerchantIDRequired  = errors.New("payfast merchant id is required")
	errMerchantKeyRequired = errors.New("payfast merchant key is required")
	errProcessURLRequired  = errors.New("payfast process url is required")
	errValidateURLRequired = errors.New("payfast validate url is required")
)

// Client wraps the PayFast redirect and server-to-server verification flows.
type Client struct {
	cfg        config.PayFastConfig
	httpClient Doer
	logger     *logger.Logger
}

// NewClient validates the gateway configuration and returns a ready client.
func NewClient(cfg config.PayFastConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.MerchantID) == "" {
		return nil, errMerchantIDRequired
	}
	if strings.TrimSpace(cfg.MerchantKey) == "" {
		return nil, errMerchantKeyRequired
	}
	if strings.TrimSpace(cfg.ProcessURL) == "" {
		return nil, errProcessURLRequired
	}
	if strings.TrimSpace(cfg.ValidateURL) == "" {
		return nil, errValidateURLRequired
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.VerifyTimeout},
		logger:     logg,
	}, nil
}

// MerchantID returns the configured merchant identity.
func (c *Client) MerchantID() string {
	return c.cfg.MerchantID
}

// MerchantKey returns the configured merchant key.
func (c *Client) MerchantKey() string {
	return c.cfg.MerchantKey
}

// Passphrase returns the configured signing passphrase, empty when unset.
func (c *Client) Passphrase() string {
	return c.cfg.Passphrase
}

// BuildRedirect signs the outbound parameter set and returns the gateway
// redirect URL the buyer should be sent to.
func (c *Client) BuildRedirect(params map[string]string) (string, error) {
	if len(params) == 0 {
		return "", errors.New("redirect params are required")
	}

	signed := make(url.Values, len(params)+1)
	for k, v := range params {
		signed.Set(k, v)
	}
	signed.Set("signature", Signature(params, c.cfg.Passphrase))

	return c.cfg.ProcessURL + "?" + signed.Encode(), nil
}

// Verify posts the notification's core fields back to the gateway validation
// endpoint and reports whether the gateway affirms them. A non-2xx status or
// any body other than VALID counts as a failed verification, not an error;
// errors are reserved for transport faults.
func (c *Client) Verify(ctx context.Context, params map[string]string) (bool, error) {
	form := make(url.Values, len(params))
	for k, v := range params {
		form.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ValidateURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("building verification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("calling verification endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return false, fmt.Errorf("reading verification response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if c.logger != nil {
			c.logger.Warn(ctx, fmt.Sprintf("gateway verification returned status %d", resp.StatusCode))
		}
		return false, nil
	}

	return strings.EqualFold(strings.TrimSpace(string(body)), "VALID"), nil
}
