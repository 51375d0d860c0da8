package auth

import "github.com/Eursukkul/restaurant-reservation/internal/models"

type Capability string

const (
	AddReservation    Capability = "add_reservation"
	ChangeReservation Capability = "change_reservation"
	DeleteReservation Capability = "delete_reservation"
)

// Actor is the authenticated caller of a scheduler operation. The zero Actor
// is anonymous and holds no capabilities.
type Actor struct {
	UserID       uint
	CustomerID   uint
	Username     string
	Email        string
	Role         models.Role
	Capabilities map[Capability]struct{}
}

func (a Actor) Authenticated() bool {
	return a.UserID != 0
}

func (a Actor) Can(c Capability) bool {
	return HasCapability(a, c)
}

func HasCapability(actor Actor, c Capability) bool {
	if !actor.Authenticated() {
		return false
	}
	_, ok := actor.Capabilities[c]
	return ok
}

func NewActor(user *models.User, customerID uint, caps ...Capability) Actor {
	a := Actor{
		UserID:       user.ID,
		CustomerID:   customerID,
		Username:     user.Username,
		Email:        user.Email,
		Role:         user.Role,
		Capabilities: make(map[Capability]struct{}, len(caps)),
	}
	for _, c := range caps {
		a.Capabilities[c] = struct{}{}
	}
	return a
}
