package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/commonsfund/treasury/pkg/treasury"
)

type Message struct {
	Content string `json:"content"`
}

type Messager struct {
	BaseURL      string
	TreasuryName string

	notify bool
}

func NewMessager(baseURL, treasuryName string, notify bool) treasury.WebhookMessager {
	return &Messager{
		BaseURL:      baseURL,
		TreasuryName: treasuryName,
		notify:       notify,
	}
}

func (b *Messager) Notify(ctx context.Context, message string) error {
	return b.send(ctx, message)
}

func (b *Messager) NotifyWarning(ctx context.Context, errorMessage error) error {
	return b.send(ctx, fmt.Sprintf("warning: %s", errorMessage.Error()))
}

func (b *Messager) NotifyError(ctx context.Context, errorMessage error) error {
	return b.send(ctx, fmt.Sprintf("error: %s", errorMessage.Error()))
}

func (b *Messager) send(ctx context.Context, message string) error {
	if !b.notify {
		return nil
	}

	data, err := json.Marshal(Message{Content: fmt.Sprintf("[%s] %s", b.TreasuryName, message)})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL, bytes.NewReader(data))
	if err != nil {
		return err
	}

	req.Header.Add("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New("error sending message")
	}

	return nil
}
