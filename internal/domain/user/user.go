package user

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const maxDisplayNameLength = 80

// User is a marketplace account profile. AdminFlags and RestrictedOverride
// feed the policy engines; everything else about a user's standing is
// recomputed from their listings, requests and disputes.
type User struct {
	ID                 int64     `json:"id"`
	UserID             uuid.UUID `json:"userId"`
	DisplayName        string    `json:"displayName"`
	AdminFlags         float64   `json:"adminFlags"`
	RestrictedOverride bool      `json:"restrictedOverride"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Repository persists user profiles.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, error)
	SetRestrictedOverride(ctx context.Context, userID uuid.UUID, restricted bool) error
	SetAdminFlags(ctx context.Context, userID uuid.UUID, flags float64) error
}

// New creates a user profile.
func New(displayName string) *User {
	now := time.Now().UTC()
	return &User{
		UserID:      uuid.New(),
		DisplayName: strings.TrimSpace(displayName),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("display name is required")
	}
	if utf8.RuneCountInString(name) > maxDisplayNameLength {
		return errors.New("display name is too long")
	}
	return nil
}

func ValidateAdminFlags(flags float64) error {
	if flags < 0 {
		return errors.New("admin flags must be non-negative")
	}
	return nil
}
