package domain

import "time"

type Header struct {
	Name  string
	Value string
}

type MessageBody struct {
	// Data is transport-encoded (URL-safe base64).
	Data string
}

// MessagePart is a node of a message's MIME structure. The top-level
// payload of a message is itself a MessagePart.
type MessagePart struct {
	MimeType string
	Headers  []Header
	Body     MessageBody
	Parts    []MessagePart
}

type Message struct {
	ID      string
	Payload MessagePart
}

type OutcomeStatus string

const (
	OutcomeSkipped        OutcomeStatus = "skipped"
	OutcomeParseFailed    OutcomeStatus = "parse_failed"
	OutcomeEmpty          OutcomeStatus = "empty"
	OutcomePartialAborted OutcomeStatus = "partial_aborted"
	OutcomeOrdered        OutcomeStatus = "ordered"
	OutcomeOrderFailed    OutcomeStatus = "order_failed"
)

// MessageOutcome is what the ledger keeps about one processed message.
type MessageOutcome struct {
	RunID       string
	MessageID   string
	Subject     string
	Status      OutcomeStatus
	ItemCount   int
	FailedItems int
	OrderID     string
	Error       string
	ProcessedAt time.Time
}
