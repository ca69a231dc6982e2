package inbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rl1809/po-watcher/internal/core/domain"
)

const maxErrorBody = 4 << 10

type GmailAdapter struct {
	client  *http.Client
	baseURL string
	user    string
	token   string
}

func NewGmailAdapter(client *http.Client, baseURL, user, token string) *GmailAdapter {
	return &GmailAdapter{
		client:  client,
		baseURL: baseURL,
		user:    user,
		token:   token,
	}
}

type listResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type messageResponse struct {
	ID      string      `json:"id"`
	Payload partPayload `json:"payload"`
}

type partPayload struct {
	MimeType string `json:"mimeType"`
	Headers  []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"headers"`
	Body struct {
		Data string `json:"data"`
	} `json:"body"`
	Parts []partPayload `json:"parts"`
}

func (g *GmailAdapter) ListRecentMessageIDs(ctx context.Context, folder string, max int) ([]string, error) {
	q := url.Values{}
	q.Set("labelIds", folder)
	q.Set("maxResults", strconv.Itoa(max))
	endpoint := fmt.Sprintf("%s/users/%s/messages?%s", g.baseURL, url.PathEscape(g.user), q.Encode())

	var resp listResponse
	if err := g.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (g *GmailAdapter) GetMessage(ctx context.Context, id string) (*domain.Message, error) {
	endpoint := fmt.Sprintf("%s/users/%s/messages/%s?format=full", g.baseURL, url.PathEscape(g.user), url.PathEscape(id))

	var resp messageResponse
	if err := g.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	return &domain.Message{ID: resp.ID, Payload: resp.Payload.toDomain()}, nil
}

func (p partPayload) toDomain() domain.MessagePart {
	part := domain.MessagePart{
		MimeType: p.MimeType,
		Body:     domain.MessageBody{Data: p.Body.Data},
	}
	for _, h := range p.Headers {
		part.Headers = append(part.Headers, domain.Header{Name: h.Name, Value: h.Value})
	}
	for _, child := range p.Parts {
		part.Parts = append(part.Parts, child.toDomain())
	}
	return part
}

func (g *GmailAdapter) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("gmail request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.UpstreamError{Kind: domain.ErrAuthFailure, StatusCode: resp.StatusCode, Body: string(body)}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("gmail: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gmail response: %w", err)
	}
	return nil
}
