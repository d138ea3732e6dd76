package sms

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Sender delivers one text message. A nil error means the gateway accepted
// the message; callers treat any error as a recoverable delivery failure.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// TwilioClient sends SMS through the Twilio messages endpoint.
type TwilioClient struct {
	baseURL    string
	accountSID string
	authToken  string
	from       string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewTwilioClient(baseURL, accountSID, authToken, from string, timeout time.Duration, logger *slog.Logger) *TwilioClient {
	return &TwilioClient{
		baseURL:    baseURL,
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *TwilioClient) Send(ctx context.Context, to, body string) error {
	if c.accountSID == "" || c.authToken == "" {
		return fmt.Errorf("twilio credentials are not configured")
	}

	// Twilio requires E.164 with a leading +.
	if !strings.HasPrefix(to, "+") {
		to = "+" + to
	}

	form := url.Values{
		"To":   {to},
		"From": {c.from},
		"Body": {body},
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending SMS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code: %d - body: %s", resp.StatusCode, respBody)
	}

	c.logger.Info("SMS sent", "to", to)
	return nil
}
