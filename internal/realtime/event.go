package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
)

type MessageType string

const (
	MessageJoin         MessageType = "join-expert"
	MessageLeave        MessageType = "leave-expert"
	MessageSlotBooked   MessageType = "slot-booked"
	MessageSlotReleased MessageType = "slot-released"
)

// Kind is the subset of message types that carry a slot transition.
type Kind = MessageType

const (
	KindBooked   = MessageSlotBooked
	KindReleased = MessageSlotReleased
)

var (
	ErrUnknownMessage = errors.New("unknown realtime message type")
	ErrMalformedEvent = errors.New("malformed realtime event")
)

// Event is one slot transition on an expert topic. It is applied once and dropped.
type Event struct {
	ExpertID string
	Kind     Kind
	Date     string
	TimeSlot string
}

// Booked reports whether the event marks the slot as taken.
func (e Event) Booked() bool {
	return e.Kind == KindBooked
}

// Message is the JSON frame exchanged on a topic.
type Message struct {
	Type     MessageType `json:"type"`
	ExpertID string      `json:"expertId,omitempty"`
	Date     string      `json:"date,omitempty"`
	TimeSlot string      `json:"timeSlot,omitempty"`
}

func JoinMessage(expertID string) Message {
	return Message{Type: MessageJoin, ExpertID: expertID}
}

func LeaveMessage(expertID string) Message {
	return Message{Type: MessageLeave, ExpertID: expertID}
}

func EncodeEvent(ev Event) ([]byte, error) {
	if ev.Kind != KindBooked && ev.Kind != KindReleased {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, ev.Kind)
	}
	return json.Marshal(Message{
		Type:     ev.Kind,
		ExpertID: ev.ExpertID,
		Date:     ev.Date,
		TimeSlot: ev.TimeSlot,
	})
}

// DecodeEvent parses a slot-booked or slot-released frame. Join and leave
// frames are control messages and are reported as ErrUnknownMessage here.
func DecodeEvent(data []byte) (Event, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	switch msg.Type {
	case MessageSlotBooked, MessageSlotReleased:
	default:
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
	if msg.Date == "" || msg.TimeSlot == "" {
		return Event{}, fmt.Errorf("%w: date and timeSlot are required", ErrMalformedEvent)
	}
	return Event{
		ExpertID: msg.ExpertID,
		Kind:     msg.Type,
		Date:     msg.Date,
		TimeSlot: msg.TimeSlot,
	}, nil
}
