package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const telegramAPIBaseURL = "https://api.telegram.org"

// TelegramNotifier delivers operator messages via the Telegram Bot API.
type TelegramNotifier struct {
	baseURL string
	token   string
	chatID  int64
	httpc   *http.Client
}

// NewTelegramNotifier creates a notifier for the given bot token and chat.
func NewTelegramNotifier(token string, chatID int64, httpc *http.Client) *TelegramNotifier {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &TelegramNotifier{
		baseURL: telegramAPIBaseURL,
		token:   strings.TrimSpace(token),
		chatID:  chatID,
		httpc:   httpc,
	}
}

// SetBaseURL overrides the API endpoint (used by tests).
func (n *TelegramNotifier) SetBaseURL(u string) {
	n.baseURL = strings.TrimRight(u, "/")
}

// Notify posts a sendMessage call to the operator chat.
func (n *TelegramNotifier) Notify(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]any{
		"chat_id": n.chatID,
		"text":    text,
	})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram send failed: %s", resp.Status)
	}
	return nil
}
