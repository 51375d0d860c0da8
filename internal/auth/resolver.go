package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/Eursukkul/restaurant-reservation/internal/repository"
)

var ErrUnknownUser = errors.New("unknown user")

type Resolver struct {
	users repository.UserRepository
	roles *RoleMatrix
}

func NewResolver(users repository.UserRepository, roles *RoleMatrix) *Resolver {
	return &Resolver{users: users, roles: roles}
}

// Resolve builds the Actor for userID: role capabilities plus per-user grants.
func (r *Resolver) Resolve(ctx context.Context, userID uint) (Actor, error) {
	user, err := r.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Actor{}, ErrUnknownUser
		}
		return Actor{}, fmt.Errorf("load user %d: %w", userID, err)
	}

	var customerID uint
	customer, err := r.users.FindCustomerByUserID(ctx, userID)
	switch {
	case err == nil:
		customerID = customer.ID
	case !errors.Is(err, repository.ErrNotFound):
		return Actor{}, fmt.Errorf("load customer profile for user %d: %w", userID, err)
	}

	grants, err := r.users.FindCapabilities(ctx, userID)
	if err != nil {
		return Actor{}, fmt.Errorf("load capabilities for user %d: %w", userID, err)
	}

	caps := append([]Capability{}, r.roles.CapabilitiesFor(user.Role)...)
	for _, g := range grants {
		caps = append(caps, Capability(g))
	}

	return NewActor(user, customerID, caps...), nil
}
