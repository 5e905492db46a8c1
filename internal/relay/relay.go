// Package relay turns committed booking events into slot events on the
// expert topics that calendar viewers subscribe to.
package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Domenick1991/expertbooking/internal/kafka"
	"github.com/Domenick1991/expertbooking/internal/metrics"
	"github.com/Domenick1991/expertbooking/internal/realtime"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	resultPublished = "published"
	resultIgnored   = "ignored"
	resultMalformed = "malformed"
	resultFailed    = "failed"
)

type Relay struct {
	publisher realtime.Publisher
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func New(publisher realtime.Publisher, logger *zap.Logger, m *metrics.Metrics) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{publisher: publisher, logger: logger, metrics: m}
}

// SlotEvent maps a booking event to the slot transition it implies.
// Confirm and complete leave the slot as it is and map to nothing.
func SlotEvent(ev kafka.BookingEvent) (realtime.Event, bool) {
	var kind realtime.Kind
	switch ev.Type {
	case kafka.EventBookingCreated:
		kind = realtime.KindBooked
	case kafka.EventBookingCancelled:
		kind = realtime.KindReleased
	default:
		return realtime.Event{}, false
	}
	return realtime.Event{
		ExpertID: ev.ExpertID,
		Kind:     kind,
		Date:     ev.Date,
		TimeSlot: ev.TimeSlot,
	}, true
}

// Handle consumes one Kafka message. Undecodable messages are logged and
// skipped; a publish failure is returned to the caller.
func (r *Relay) Handle(ctx context.Context, msg kafkago.Message) error {
	var ev kafka.BookingEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		r.metrics.ObserveRelay("unknown", resultMalformed)
		r.logger.Warn("skip malformed booking event",
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		return nil
	}

	slotEvent, ok := SlotEvent(ev)
	if !ok {
		r.metrics.ObserveRelay(ev.Type, resultIgnored)
		return nil
	}
	if slotEvent.ExpertID == "" || slotEvent.Date == "" || slotEvent.TimeSlot == "" {
		r.metrics.ObserveRelay(ev.Type, resultMalformed)
		r.logger.Warn("skip booking event without slot", zap.String("booking_id", ev.BookingID))
		return nil
	}

	if err := r.publisher.Publish(ctx, slotEvent); err != nil {
		r.metrics.ObserveRelay(ev.Type, resultFailed)
		return fmt.Errorf("publish %s for expert %s: %w", slotEvent.Kind, slotEvent.ExpertID, err)
	}

	r.metrics.ObserveRelay(ev.Type, resultPublished)
	r.logger.Debug("slot event relayed",
		zap.String("kind", string(slotEvent.Kind)),
		zap.String("expert_id", slotEvent.ExpertID),
		zap.String("date", slotEvent.Date),
		zap.String("time_slot", slotEvent.TimeSlot))
	return nil
}
