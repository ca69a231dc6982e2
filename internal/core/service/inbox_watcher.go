package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/po-watcher/internal/core/domain"
	"github.com/rl1809/po-watcher/internal/core/lineitem"
	"github.com/rl1809/po-watcher/internal/core/mailbody"
	"github.com/rl1809/po-watcher/internal/port"
)

const (
	subjectKeyword      = "purchase order"
	DefaultPollInterval = 5 * time.Second
	DefaultFolder       = "INBOX"
)

type WatcherConfig struct {
	Folder       string
	PollInterval time.Duration
}

type WatcherDeps struct {
	Inbox    port.InboxRepository
	Cursor   port.CursorRepository
	Resolver *CatalogResolver
	Builder  *OrderBuilder
	Sink     port.NotificationSink
	// Ledger is optional.
	Ledger port.LedgerRepository
	Logger *slog.Logger
}

// WatcherStatus is a snapshot of the watcher's progress.
type WatcherStatus struct {
	Running       bool      `json:"running"`
	LastMessageID string    `json:"last_message_id"`
	LastPollAt    time.Time `json:"last_poll_at"`
	Polls         int       `json:"polls"`
	Processed     int       `json:"processed"`
	Ordered       int       `json:"ordered"`
	Failed        int       `json:"failed"`
	LastError     string    `json:"last_error,omitempty"`
}

// InboxWatcher polls the inbox and turns every new purchase-order email
// into a purchase order. Messages are handled one at a time; Run must not
// be called concurrently with itself or with PollOnce.
//
// Only the latest message id is remembered, so a burst of emails that
// arrives between two polls is seen as its newest message only. Polling
// (rather than push) costs up to one interval of latency.
type InboxWatcher struct {
	inbox    port.InboxRepository
	cursor   port.CursorRepository
	resolver *CatalogResolver
	builder  *OrderBuilder
	sink     port.NotificationSink
	ledger   port.LedgerRepository
	logger   *slog.Logger
	cfg      WatcherConfig

	now      func() time.Time
	newRunID func() string

	mu     sync.RWMutex
	status WatcherStatus
}

func NewInboxWatcher(deps WatcherDeps, cfg WatcherConfig) *InboxWatcher {
	if cfg.Folder == "" {
		cfg.Folder = DefaultFolder
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &InboxWatcher{
		inbox:    deps.Inbox,
		cursor:   deps.Cursor,
		resolver: deps.Resolver,
		builder:  deps.Builder,
		sink:     deps.Sink,
		ledger:   deps.Ledger,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// Run polls until ctx is cancelled or the inbox rejects our credentials.
// Every other failure is logged and polling continues.
func (w *InboxWatcher) Run(ctx context.Context) error {
	w.setRunning(true)
	defer w.setRunning(false)

	w.logger.Info("watching inbox", "folder", w.cfg.Folder, "interval", w.cfg.PollInterval)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		if err := w.PollOnce(ctx); err != nil {
			if errors.Is(err, domain.ErrAuthFailure) {
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Error("poll failed", "error", err)
		}

		timer.Reset(w.cfg.PollInterval)
	}
}

// PollOnce runs one cycle: fetch the newest message id and, if it has not
// been seen, process that message. The returned error covers inbox and
// cursor failures only; what happens to the message itself is logged and
// recorded in the ledger.
func (w *InboxWatcher) PollOnce(ctx context.Context) error {
	w.markPoll()

	ids, err := w.inbox.ListRecentMessageIDs(ctx, w.cfg.Folder, 1)
	if err != nil {
		return w.fail(fmt.Errorf("list messages: %w", err))
	}
	if len(ids) == 0 {
		return nil
	}
	id := ids[0]

	last, err := w.cursor.LastSeen(ctx)
	if err != nil {
		return w.fail(fmt.Errorf("read cursor: %w", err))
	}
	if id == last {
		return nil
	}

	msg, err := w.inbox.GetMessage(ctx, id)
	if err != nil {
		return w.fail(fmt.Errorf("get message %s: %w", id, err))
	}

	// The cursor moves before processing so a message that fails is not
	// retried on every cycle.
	if err := w.cursor.SetLastSeen(ctx, id); err != nil {
		return w.fail(fmt.Errorf("advance cursor: %w", err))
	}
	w.logger.Info("new email received", "message_id", id)

	outcome := w.ProcessMessage(ctx, msg)
	w.record(ctx, outcome)
	return nil
}

// ProcessMessage drives one message through decoding, parsing, the sink
// notification, catalog resolution and order submission.
func (w *InboxWatcher) ProcessMessage(ctx context.Context, msg *domain.Message) domain.MessageOutcome {
	outcome := domain.MessageOutcome{
		RunID:       w.newRunID(),
		MessageID:   msg.ID,
		ProcessedAt: w.now(),
	}
	log := w.logger.With("run_id", outcome.RunID, "message_id", msg.ID)

	subject := mailbody.Subject(msg.Payload.Headers)
	if subject == nil {
		log.Warn("email has no subject, skipping")
		outcome.Status = domain.OutcomeSkipped
		return outcome
	}
	outcome.Subject = *subject
	if !IsPurchaseOrderSubject(*subject) {
		log.Info("email subject does not contain 'purchase order'", "subject", *subject)
		outcome.Status = domain.OutcomeSkipped
		return outcome
	}
	log.Info("purchase order email", "subject", *subject)

	_, body, err := mailbody.Decode(msg.Payload)
	if err != nil {
		log.Error("decode body", "error", err)
		return failed(outcome, domain.OutcomeParseFailed, err)
	}
	if body == nil {
		log.Warn("email has no text/plain body, skipping")
		outcome.Status = domain.OutcomeSkipped
		return outcome
	}

	records, err := lineitem.Parse(*body)
	if err != nil {
		log.Error("parse items", "error", err)
		return failed(outcome, domain.OutcomeParseFailed, err)
	}
	outcome.ItemCount = len(records)
	log.Info("parsed items", "count", len(records))

	if err := w.sink.Notify(ctx, *subject, records); err != nil {
		log.Warn("notify sink", "error", err)
	}

	batch := w.resolveItems(ctx, log, records)
	outcome.FailedItems = len(batch.Failures)

	if err := w.builder.Decide(batch); err != nil {
		log.Error("order dropped", "error", err)
		return failed(outcome, domain.OutcomePartialAborted, err)
	}
	if len(batch.Resolved) == 0 {
		log.Warn("no line items resolved, not submitting an order", "parsed", len(records))
		outcome.Status = domain.OutcomeEmpty
		return outcome
	}

	order, err := w.builder.Submit(ctx, batch.Resolved)
	if err != nil {
		log.Error("create purchase order", "error", err)
		return failed(outcome, domain.OutcomeOrderFailed, err)
	}
	log.Info("purchase order created", "order_id", order.ID, "order_number", order.Number,
		"line_items", len(batch.Resolved), "failed_items", len(batch.Failures))

	outcome.Status = domain.OutcomeOrdered
	outcome.OrderID = order.ID
	return outcome
}

// resolveItems builds a fresh accumulator for one message. A failing item
// lands in Failures and never touches the line items resolved before it.
func (w *InboxWatcher) resolveItems(ctx context.Context, log *slog.Logger, records []domain.RawItemRecord) domain.ItemBatch {
	var batch domain.ItemBatch
	for _, rec := range records {
		item, err := w.resolveItem(ctx, log, rec)
		if err != nil {
			log.Error("item skipped", "item", rec.ItemNumber, "name", rec.Name, "error", err)
			batch.Fail(rec, err)
			continue
		}
		batch.Add(item)
	}
	return batch
}

func (w *InboxWatcher) resolveItem(ctx context.Context, log *slog.Logger, rec domain.RawItemRecord) (domain.ResolvedLineItem, error) {
	c, err := lineitem.Coerce(rec)
	if err != nil {
		return domain.ResolvedLineItem{}, err
	}
	id, created, err := w.resolver.Resolve(ctx, c.Name, c.Description, c.Rate)
	if err != nil {
		return domain.ResolvedLineItem{}, err
	}
	log.Info("catalog item resolved", "name", c.Name, "item_id", id, "created", created)
	return domain.ResolvedLineItem{
		CatalogItemID: id,
		Quantity:      c.Quantity,
		Rate:          c.Rate,
	}, nil
}

// IsPurchaseOrderSubject reports whether subject mentions a purchase order,
// ignoring case.
func IsPurchaseOrderSubject(subject string) bool {
	return strings.Contains(strings.ToLower(subject), subjectKeyword)
}

func failed(outcome domain.MessageOutcome, status domain.OutcomeStatus, err error) domain.MessageOutcome {
	outcome.Status = status
	outcome.Error = err.Error()
	return outcome
}

func (w *InboxWatcher) record(ctx context.Context, outcome domain.MessageOutcome) {
	w.mu.Lock()
	w.status.LastMessageID = outcome.MessageID
	switch outcome.Status {
	case domain.OutcomeSkipped:
	case domain.OutcomeOrdered:
		w.status.Processed++
		w.status.Ordered++
	default:
		w.status.Processed++
		w.status.Failed++
		w.status.LastError = outcome.Error
	}
	w.mu.Unlock()

	if w.ledger == nil {
		return
	}
	if err := w.ledger.RecordOutcome(ctx, outcome); err != nil {
		w.logger.Error("record outcome", "message_id", outcome.MessageID, "error", err)
	}
}

func (w *InboxWatcher) fail(err error) error {
	w.mu.Lock()
	w.status.LastError = err.Error()
	w.mu.Unlock()
	return err
}

func (w *InboxWatcher) markPoll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status.Polls++
	w.status.LastPollAt = w.now()
}

func (w *InboxWatcher) setRunning(running bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status.Running = running
}

// Status returns a snapshot safe to read from other goroutines.
func (w *InboxWatcher) Status() WatcherStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}
