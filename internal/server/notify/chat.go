package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/accessportal/internal/server/models"
)

// ChatChannel posts messages to an HTTP messaging gateway (WhatsApp/SMS).
// The gateway receives {"to": phone, "message": text} with a bearer token.
type ChatChannel struct {
	url    string
	token  string
	client *http.Client
}

func NewChatChannel(url, token string, client *http.Client) *ChatChannel {
	if client == nil {
		client = http.DefaultClient
	}
	return &ChatChannel{url: url, token: token, client: client}
}

func (c *ChatChannel) Name() string { return "chat" }

func (c *ChatChannel) Accepts(acct *models.Account) bool { return acct.Phone != "" }

func (c *ChatChannel) Send(ctx context.Context, acct *models.Account, msg Message) error {
	if acct.Phone == "" {
		return ErrNoAddress
	}

	payload, err := json.Marshal(map[string]string{
		"to":      acct.Phone,
		"message": msg.Subject + "\n\n" + msg.Body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("chat gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("chat gateway: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}
