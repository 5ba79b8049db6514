// Package events publishes trip lifecycle events for downstream consumers
// such as dispatch boards and ELD sync jobs.
package events

import (
	"encoding/json"
	"fmt"
	logger "log"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

//TripCalculatedSubject is the subject trip-calculated events are published on.
const TripCalculatedSubject = "hos.trip.calculated"

//TripCalculated announces one persisted trip calculation.
type TripCalculated struct {
	TripID             uuid.UUID `json:"trip_id"`
	UserID             uuid.UUID `json:"user_id"`
	TotalDistanceMiles float64   `json:"total_distance_miles"`
	TotalDrivingHours  float64   `json:"total_driving_hours"`
	TotalDays          int       `json:"total_days"`
	StartTime          time.Time `json:"start_time"`
	EndTime            time.Time `json:"end_time"`
	CalculatedAt       time.Time `json:"calculated_at"`
}

//Destination is where events are sent after a trip is persisted.
type Destination interface {
	Publish(subject string, payload []byte) error
}

//natsDestination sends events over nats.
type natsDestination struct {
	natsConn *nats.Conn
}

func (n *natsDestination) Publish(subject string, payload []byte) error {
	return n.natsConn.Publish(subject, payload)
}

//NewNatsDestination wraps a nats connection as a Destination.
func NewNatsDestination(natsConn *nats.Conn) Destination {
	return &natsDestination{natsConn: natsConn}
}

//Publisher publishes trip events to a destination. A nil destination turns
//the publisher into a no-op, which is how the service runs with no broker
//configured. Publish failures are logged and swallowed: the trip is already
//persisted and the caller's response must not depend on the broker.
type Publisher struct {
	log         *logger.Logger
	destination Destination
}

//MakePublisher builds a Publisher. destination may be nil.
func MakePublisher(log *logger.Logger, destination Destination) *Publisher {
	return &Publisher{
		log:         log,
		destination: destination,
	}
}

//TripCalculated publishes a trip-calculated event.
func (p *Publisher) TripCalculated(event TripCalculated) {
	if p.destination == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Printf("events: error marshaling trip event for trip %s: %v", event.TripID, err)
		return
	}
	if err := p.destination.Publish(TripCalculatedSubject, payload); err != nil {
		p.log.Printf("events: error publishing trip event for trip %s: %v", event.TripID, err)
	}
}

//String renders the event for logs.
func (e TripCalculated) String() string {
	return fmt.Sprintf("trip %s: %.0f mi, %.2f driving hours, %d days",
		e.TripID, e.TotalDistanceMiles, e.TotalDrivingHours, e.TotalDays)
}
