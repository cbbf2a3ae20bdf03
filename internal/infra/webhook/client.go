package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/roman19921993/cybertechno25-bot/internal/domain"
)

const SignatureHeader = "X-Signature"

// Client отправляет лиды во внешнюю CRM формой application/x-www-form-urlencoded
type Client struct {
	URL        string
	Secret     string
	HTTPClient *http.Client
}

func NewClient(endpoint, secret string, opts ...func(*Client)) *Client {
	c := &Client{
		URL:        endpoint,
		Secret:     secret,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithHTTPClient(hc *http.Client) func(*Client) {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

// SendLead posts the lead form. With a secret set, the body is signed with HMAC-SHA256
// (hex) in the X-Signature header.
func (c *Client) SendLead(ctx context.Context, lead domain.Lead) error {
	if c == nil || strings.TrimSpace(c.URL) == "" {
		return fmt.Errorf("%w: webhook url is not set", domain.ErrDelivery)
	}

	form := url.Values{}
	form.Set("lead_id", strconv.FormatInt(lead.ID, 10))
	form.Set("tg_user_id", strconv.FormatInt(lead.UserID, 10))
	form.Set("tg_username", lead.Username)
	form.Set("name", lead.Name)
	form.Set("company", lead.Company)
	form.Set("role", lead.Role)
	form.Set("email", lead.Email)
	form.Set("call_dt_local", lead.CallDateTimeLocal)
	form.Set("consent", strconv.FormatBool(lead.Consent))
	form.Set("created_at", lead.CreatedAt.Format(time.RFC3339))
	body := form.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(c.Secret, body))
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDelivery, err)
	}
	defer resp.Body.Close()
	// считаем успешным любой 2xx
	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%w: %w", domain.ErrDelivery, &StatusError{Code: resp.StatusCode, Body: string(respBody)})
	}
	return nil
}

type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook non-2xx: %d: %s", e.Code, e.Body)
}

func Sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}
