package events

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

const (
	TypeCheckout = "checkout"
	TypeReturn   = "return"
)

// LoanEvent is published after a successful loan-state transition.
type LoanEvent struct {
	EventID    uuid.UUID `json:"eventId"`
	Type       string    `json:"type"`
	BookID     string    `json:"bookId"`
	BorrowerID int       `json:"borrowerId,omitempty"`
	At         time.Time `json:"at"`
}

func NewLoanEvent(eventType, bookID string, borrowerID int) LoanEvent {
	return LoanEvent{
		EventID:    uuid.New(),
		Type:       eventType,
		BookID:     bookID,
		BorrowerID: borrowerID,
		At:         time.Now().UTC(),
	}
}

type Enqueuer interface {
	Enqueue(topic string, v any) error
}

func NewEnqueuer(producer sarama.SyncProducer) Enqueuer {
	return &enqueuerImpl{
		producer: producer,
	}
}

type enqueuerImpl struct {
	producer sarama.SyncProducer
}

func (q *enqueuerImpl) Enqueue(topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{Topic: topic, Value: sarama.StringEncoder(data)}
	if _, _, err = q.producer.SendMessage(msg); err != nil {
		return err
	}
	return nil
}
