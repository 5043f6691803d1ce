package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the single authorization flag carried by an identity.
type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleProvider
}

// identityNamespace seeds the deterministic identity ids derived from emails.
var identityNamespace = uuid.MustParse("6f1c2a4e-3b5d-5e8f-9a0b-fa2f0a9d1c3e")

// Identity is the authenticated user's session record. It is created on a
// successful login and held by the session store until logout.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}

// Valid reports whether the identity carries every required attribute.
func (i *Identity) Valid() bool {
	return i != nil && i.ID != "" && i.Email != "" && i.Role.Valid()
}

// NewIdentity derives the identity for email. The same email always yields
// the same id. An empty displayName falls back to the email's local part and
// an unknown role falls back to RoleClient.
func NewIdentity(email, displayName string, role Role) Identity {
	normalized := NormalizeEmail(email)
	if strings.TrimSpace(displayName) == "" {
		displayName, _, _ = strings.Cut(normalized, "@")
	}
	if !role.Valid() {
		role = RoleClient
	}
	return Identity{
		ID:          uuid.NewSHA1(identityNamespace, []byte(normalized)).String(),
		Email:       normalized,
		DisplayName: strings.TrimSpace(displayName),
		Role:        role,
	}
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Account is the record kept by the account directory for every registered
// client or provider.
type Account struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	PasswordHash  string    `json:"-"`
	Role          Role      `json:"role"`
	Phone         string    `json:"phone,omitempty"`
	Address       string    `json:"address,omitempty"`
	Qualification string    `json:"qualification,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Registration carries the validated registration form handed to the
// account directory. Password is the clear-text secret; the directory hashes
// it before storage.
type Registration struct {
	Name          string
	Email         string
	Password      string
	Phone         string
	Role          Role
	Address       string
	Qualification string
}
