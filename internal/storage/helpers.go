package storage

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"evcircle/internal/models"
)

// NewID returns a fresh entity identifier.
func NewID() string {
	return uuid.NewString()
}

// NormalizeEmail lower-cases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeSlug lower-cases and trims a community slug.
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// ValidateNewUser checks the fields every backend requires before insert.
func ValidateNewUser(in NewUser) (NewUser, error) {
	in.Email = NormalizeEmail(in.Email)
	if in.Email == "" {
		return in, models.NewValidationError("email is required")
	}
	if in.PasswordHash == "" {
		return in, models.NewValidationError("password hash is required")
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if in.Status == "" {
		in.Status = models.StatusActive
	}
	return in, nil
}

// ErrEmailTaken is returned when a user is created with a registered email.
func ErrEmailTaken() error {
	return models.NewValidationError("email is already registered")
}

// ErrSlugTaken is returned when a community slug is already in use.
func ErrSlugTaken(slug string) error {
	return models.NewValidationError(fmt.Sprintf("community slug %q is already taken", slug))
}

// Internal wraps a backend failure for the named operation.
func Internal(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*models.AppError); ok {
		return err
	}
	return models.NewInternalError(fmt.Errorf("%s: %w", op, err))
}

// StringsOrEmpty returns a non-nil copy of in.
func StringsOrEmpty(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// ToggleID removes id from ids if present and appends it otherwise.
func ToggleID(ids []string, id string) []string {
	out := make([]string, 0, len(ids)+1)
	found := false
	for _, v := range ids {
		if v == id {
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, id)
	}
	return out
}

// ContainsFold reports whether s contains substr, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Floor returns n, or 0 when n is negative.
func Floor(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
