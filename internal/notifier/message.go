package notifier

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Eursukkul/restaurant-reservation/internal/events"
)

const timeLayout = "Monday, 02 Jan 2006 15:04"

type Message struct {
	To      string
	Subject string
	Body    string
}

// Compose renders the email for a reservation event.
func Compose(evt events.ReservationEvent) (Message, error) {
	if evt.CustomerEmail == "" {
		return Message{}, errors.New("event has no recipient")
	}

	var subject, intro string
	switch evt.Type {
	case events.ReservationCreated:
		subject = "Reservation Confirmation"
		intro = "Your reservation has been confirmed."
	case events.ReservationUpdated:
		subject = "Reservation Update"
		intro = "Your reservation has been updated."
	case events.ReservationCancelled:
		subject = "Cancel Reservation"
		intro = "Your reservation has been cancelled."
	default:
		return Message{}, fmt.Errorf("unknown event type %q", evt.Type)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n%s\n\n", evt.CustomerName, intro)
	fmt.Fprintf(&b, "Restaurant: %s\n", evt.RestaurantName)
	fmt.Fprintf(&b, "Table: %s\n", evt.TableNumber)
	fmt.Fprintf(&b, "From: %s\n", evt.StartTime.Format(timeLayout))
	fmt.Fprintf(&b, "To: %s\n", evt.EndTime.Format(timeLayout))
	if evt.SpecialRequests != "" {
		fmt.Fprintf(&b, "Special requests: %s\n", evt.SpecialRequests)
	}
	fmt.Fprintf(&b, "Reservation number: %d\n\nThank you!\n", evt.ReservationID)

	return Message{To: evt.CustomerEmail, Subject: subject, Body: b.String()}, nil
}
