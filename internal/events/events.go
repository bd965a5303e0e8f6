package events

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/Chqrety/reservation/internal/models"
)

const (
	EventReservationCreated = "reservation_created"
	EventReservationDeleted = "reservation_deleted"
	EventLocationDeleted    = "location_deleted"
	EventCategoryDeleted    = "category_deleted"
)

// ReservationPayload is the reservation snapshot handed to event consumers.
type ReservationPayload struct {
	ReservationID int64  `json:"reservation_id"`
	OrderNumber   string `json:"order_number"`
	CustomerName  string `json:"customer_name"`
	PhoneNumber   string `json:"phone_number"`
	LocationID    int64  `json:"location_id"`
	LocationName  string `json:"location_name"`
	Date          string `json:"date"`
	Note          string `json:"note,omitempty"`
	ChangedBy     string `json:"changed_by,omitempty"`
}

// NewReservationPayload copies the fields consumers need from r.
func NewReservationPayload(r *models.Reservation, changedBy string) ReservationPayload {
	p := ReservationPayload{ChangedBy: changedBy}
	if r == nil {
		return p
	}
	p.ReservationID = r.ID
	p.OrderNumber = r.OrderNumber
	p.CustomerName = r.CustomerName
	p.PhoneNumber = r.PhoneNumber
	p.LocationID = r.LocationID
	p.Date = r.ReservationDate
	p.Note = r.Note
	if r.Location != nil {
		p.LocationName = r.LocationName()
	}
	return p
}

// RecordPayload identifies a deleted catalog record.
type RecordPayload struct {
	ID        int64  `json:"id"`
	ChangedBy string `json:"changed_by,omitempty"`
}

// Event is an in-process domain event with a JSON payload.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

type Handler func(event *Event) error

// Bus provides in-process pub/sub. Handlers run synchronously on the
// publishing goroutine and must hand slow work off themselves.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish calls every subscriber of the event type and joins their errors.
func (b *Bus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishJSON serializes the payload and publishes it. A nil bus is a no-op.
func (b *Bus) PublishJSON(eventType string, payload any) error {
	if b == nil {
		return nil
	}
	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}
	return b.Publish(&event)
}

func NewJSONEvent(eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
