package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"lextutor-backend/models"
)

// apiError is the error half of the server envelope.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

// client talks to a running lextutor server.
type client struct {
	baseURL string
	http    *http.Client
	dialer  *websocket.Dialer
}

func newClient(baseURL string) *client {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Minute},
		dialer:  websocket.DefaultDialer,
	}
}

// post sends body as JSON and decodes the envelope data into out. Error
// envelopes are returned as *apiError; out is still filled when the server
// attached data to the error.
func (c *client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("unexpected response (%s): %w", resp.Status, err)
	}
	if len(env.Data) > 0 && out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	if !env.Success {
		if env.Error == nil {
			return fmt.Errorf("request failed: %s", resp.Status)
		}
		return env.Error
	}
	return nil
}

func (c *client) process(ctx context.Context, question string, keywords []string) (*models.AggregateResult, error) {
	var result models.AggregateResult
	err := c.post(ctx, "/api/process", map[string]interface{}{
		"question": question,
		"keywords": keywords,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *client) fetchArticle(ctx context.Context, lawCode, number string) ([]models.ArticleContent, error) {
	var articles []models.ArticleContent
	err := c.post(ctx, "/api/fetch-article", map[string]string{
		"lawCode":       lawCode,
		"articleNumber": number,
	}, &articles)
	return articles, err
}

// streamFrame is a StreamMessage whose payload is decoded on demand.
type streamFrame struct {
	Type models.MessageType `json:"type"`
	Data json.RawMessage    `json:"data"`
}

// stream sends one question on the websocket channel and calls fn for every
// frame until complete or error.
func (c *client) stream(ctx context.Context, question string, keywords []string, fn func(streamFrame) error) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"

	conn, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]interface{}{"question": question, "keywords": keywords}); err != nil {
		return err
	}

	for {
		var frame streamFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if frame.Type == models.MessageError {
			var msg string
			_ = json.Unmarshal(frame.Data, &msg)
			return errors.New(msg)
		}
		if err := fn(frame); err != nil {
			return err
		}
		if frame.Type == models.MessageComplete {
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		}
	}
}
