package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/rl1809/po-watcher/internal/core/domain"
	"github.com/rl1809/po-watcher/internal/core/mailbody"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Mock InboxRepository
type mockInbox struct {
	mu       sync.Mutex
	ids      []string
	messages map[string]*domain.Message
	listErr  error
	getErr   error
	lists    int
	gets     int
}

func newMockInbox() *mockInbox {
	return &mockInbox{messages: make(map[string]*domain.Message)}
}

func (m *mockInbox) deliver(id, subject, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append([]string{id}, m.ids...)
	m.messages[id] = plainMessage(id, subject, body)
}

func (m *mockInbox) ListRecentMessageIDs(ctx context.Context, folder string, max int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	if m.listErr != nil {
		return nil, m.listErr
	}
	if len(m.ids) < max {
		return append([]string(nil), m.ids...), nil
	}
	return append([]string(nil), m.ids[:max]...), nil
}

func (m *mockInbox) GetMessage(ctx context.Context, id string) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	msg, ok := m.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %s not found", id)
	}
	return msg, nil
}

func plainMessage(id, subject, body string) *domain.Message {
	return &domain.Message{
		ID: id,
		Payload: domain.MessagePart{
			MimeType: "multipart/alternative",
			Headers:  []domain.Header{{Name: "Subject", Value: subject}},
			Parts: []domain.MessagePart{
				{MimeType: "text/plain", Body: domain.MessageBody{Data: mailbody.Encode(body)}},
				{MimeType: "text/html", Body: domain.MessageBody{Data: mailbody.Encode("<p>" + body + "</p>")}},
			},
		},
	}
}

// Mock CursorRepository
type mockCursor struct {
	mu   sync.Mutex
	last string
}

func (m *mockCursor) LastSeen(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, nil
}

func (m *mockCursor) SetLastSeen(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = id
	return nil
}

// Mock CatalogRepository and OrderRepository
type mockBooks struct {
	mu        sync.Mutex
	items     []domain.CatalogItem
	created   []domain.NewCatalogItem
	orders    []domain.PurchaseOrder
	lists     int
	listErr   error
	createErr error
	orderErr  error
	failNames map[string]bool
}

func newMockBooks(items ...domain.CatalogItem) *mockBooks {
	return &mockBooks{items: items, failNames: make(map[string]bool)}
}

func (m *mockBooks) ListItems(ctx context.Context) ([]domain.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]domain.CatalogItem(nil), m.items...), nil
}

func (m *mockBooks) CreateItem(ctx context.Context, item domain.NewCatalogItem) (*domain.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.failNames[item.Name] {
		return nil, &domain.UpstreamError{Kind: domain.ErrCatalogCreateFailed, StatusCode: 400, Body: `{"code":1001}`}
	}
	m.created = append(m.created, item)
	created := domain.CatalogItem{ID: fmt.Sprintf("new-%d", len(m.created)), Name: item.Name}
	m.items = append(m.items, created)
	return &created, nil
}

func (m *mockBooks) CreatePurchaseOrder(ctx context.Context, order domain.PurchaseOrder) (*domain.CreatedOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.orderErr != nil {
		return nil, m.orderErr
	}
	m.orders = append(m.orders, order)
	return &domain.CreatedOrder{ID: fmt.Sprintf("po-%d", len(m.orders)), Number: fmt.Sprintf("PO-%05d", len(m.orders))}, nil
}

// Mock NotificationSink
type mockSink struct {
	mu       sync.Mutex
	subjects []string
	items    [][]domain.RawItemRecord
	err      error
}

func (m *mockSink) Notify(ctx context.Context, subject string, items []domain.RawItemRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects = append(m.subjects, subject)
	m.items = append(m.items, items)
	return m.err
}

func (m *mockSink) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subjects)
}

// Mock LedgerRepository
type mockLedger struct {
	mu       sync.Mutex
	outcomes []domain.MessageOutcome
}

func (m *mockLedger) RecordOutcome(ctx context.Context, outcome domain.MessageOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
	return nil
}

func (m *mockLedger) GetOutcome(ctx context.Context, messageID string) (*domain.MessageOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.outcomes) - 1; i >= 0; i-- {
		if m.outcomes[i].MessageID == messageID {
			o := m.outcomes[i]
			return &o, nil
		}
	}
	return nil, nil
}

func (m *mockLedger) ListRecent(ctx context.Context, limit int) ([]domain.MessageOutcome, error) {
	return nil, errors.New("not implemented")
}
