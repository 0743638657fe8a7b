package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"conti/internal/core"
)

// TransactionRecord is the wire form of core.Transaction
type TransactionRecord struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Amount          string `json:"amount"`
	Category        string `json:"category,omitempty"`
	Criticality     string `json:"criticality,omitempty"`
	TransactionDate string `json:"transaction_date"`
	Account         string `json:"account,omitempty"`
	PaymentMethod   string `json:"payment_method,omitempty"`
	Cleared         bool   `json:"cleared"`
}

// TransactionEventMessage announces one repository change.
// Record is only set for created and updated events.
type TransactionEventMessage struct {
	EventID   string             `json:"event_id"`
	Kind      core.EventKind     `json:"kind"`
	ID        string             `json:"id,omitempty"`
	Period    string             `json:"period,omitempty"`
	Record    *TransactionRecord `json:"record,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// NewTransactionEventMessage converts ev into a message with a fresh event id
func NewTransactionEventMessage(ev core.TransactionEvent) *TransactionEventMessage {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	msg := &TransactionEventMessage{
		EventID:   uuid.NewString(),
		Kind:      ev.Kind,
		ID:        ev.ID,
		Period:    ev.Period,
		Timestamp: ts,
	}
	if ev.Record != nil {
		r := *ev.Record
		msg.Record = &TransactionRecord{
			ID:              r.ID,
			Name:            r.Name,
			Amount:          r.Amount.String(),
			Category:        r.Category,
			Criticality:     r.Criticality,
			TransactionDate: r.TransactionDate.UTC().Format(time.RFC3339),
			Account:         r.Account,
			PaymentMethod:   r.PaymentMethod,
			Cleared:         r.Cleared,
		}
	}
	return msg
}

// Event converts the message back into a core.TransactionEvent
func (m *TransactionEventMessage) Event() (core.TransactionEvent, error) {
	switch m.Kind {
	case core.EventCreated, core.EventUpdated, core.EventDeleted, core.EventUploaded:
	default:
		return core.TransactionEvent{}, fmt.Errorf("unknown event kind %q", m.Kind)
	}

	ev := core.TransactionEvent{
		Kind:      m.Kind,
		ID:        m.ID,
		Period:    m.Period,
		Timestamp: m.Timestamp,
	}
	if m.Record == nil {
		return ev, nil
	}

	amount, err := decimal.NewFromString(m.Record.Amount)
	if err != nil {
		return core.TransactionEvent{}, fmt.Errorf("record %s amount: %w", m.Record.ID, err)
	}
	date, err := core.ParseDate(m.Record.TransactionDate)
	if err != nil {
		return core.TransactionEvent{}, fmt.Errorf("record %s date: %w", m.Record.ID, err)
	}
	ev.Record = &core.Transaction{
		ID:              m.Record.ID,
		Name:            m.Record.Name,
		Amount:          amount,
		Category:        m.Record.Category,
		Criticality:     m.Record.Criticality,
		TransactionDate: date,
		Account:         m.Record.Account,
		PaymentMethod:   m.Record.PaymentMethod,
		Cleared:         m.Record.Cleared,
	}
	if ev.ID == "" {
		ev.ID = ev.Record.ID
	}
	return ev, nil
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventMessageFromJSON creates a message from JSON bytes
func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
