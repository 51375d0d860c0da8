package auth

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/Eursukkul/restaurant-reservation/internal/models"
)

type RoleConfig struct {
	Capabilities []Capability `toml:"capabilities"`
}

// RoleMatrix maps each role to the capabilities it grants.
// Source: TOML file, e.g.
//
//	[roles.customer]
//	capabilities = ["add_reservation", "change_reservation"]
type RoleMatrix struct {
	Roles map[models.Role]RoleConfig `toml:"roles"`
}

func DefaultRoleMatrix() *RoleMatrix {
	return &RoleMatrix{Roles: map[models.Role]RoleConfig{
		models.RoleCustomer:        {Capabilities: []Capability{AddReservation, ChangeReservation}},
		models.RoleRestaurantOwner: {Capabilities: []Capability{AddReservation, ChangeReservation, DeleteReservation}},
		models.RoleAdmin:           {Capabilities: []Capability{AddReservation, ChangeReservation, DeleteReservation}},
	}}
}

// LoadRoleMatrix reads the matrix from path, or returns the built-in default
// when path is empty.
func LoadRoleMatrix(path string) (*RoleMatrix, error) {
	if path == "" {
		return DefaultRoleMatrix(), nil
	}

	var m RoleMatrix
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, fmt.Errorf("failed to load role matrix: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *RoleMatrix) Validate() error {
	for role, cfg := range m.Roles {
		for _, c := range cfg.Capabilities {
			switch c {
			case AddReservation, ChangeReservation, DeleteReservation:
			default:
				return fmt.Errorf("role %q: unknown capability %q", role, c)
			}
		}
	}
	return nil
}

func (m *RoleMatrix) CapabilitiesFor(role models.Role) []Capability {
	return m.Roles[role].Capabilities
}
