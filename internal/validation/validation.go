// Package validation provides input validation utilities
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	digitRegex   = regexp.MustCompile(`[0-9]`)
	specialRegex = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?]`)
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9\-]+(\.[a-zA-Z0-9\-]+)*\.[a-zA-Z]{2,}$`)
	slugRegex    = regexp.MustCompile(`^[a-z0-9-]{3,48}$`)
)

// Community slugs that would shadow API or frontend routes.
var reservedSlugs = map[string]struct{}{
	"admin":       {},
	"api":         {},
	"auth":        {},
	"new":         {},
	"settings":    {},
	"communities": {},
	"users":       {},
	"posts":       {},
	"stations":    {},
	"questions":   {},
	"articles":    {},
	"messages":    {},
	"search":      {},
	"ws":          {},
	"metrics":     {},
	"health":      {},
}

const (
	minPasswordLen = 12
	maxPasswordLen = 128
)

var passwordRules = []struct {
	ok  func(string) bool
	msg string
}{
	{func(p string) bool { return strings.IndexFunc(p, unicode.IsUpper) >= 0 }, "password must contain at least one uppercase letter"},
	{func(p string) bool { return strings.IndexFunc(p, unicode.IsLower) >= 0 }, "password must contain at least one lowercase letter"},
	{digitRegex.MatchString, "password must contain at least one digit"},
	{specialRegex.MatchString, "password must contain at least one special character (!@#$%^&*)"},
}

// ValidatePassword enforces length and character-class requirements. Length
// is counted in bytes, matching the bcrypt input limit.
func ValidatePassword(password string) error {
	switch {
	case len(password) < minPasswordLen:
		return fmt.Errorf("password must be at least %d characters long", minPasswordLen)
	case len(password) > maxPasswordLen:
		return fmt.Errorf("password must not exceed %d characters", maxPasswordLen)
	}
	for _, rule := range passwordRules {
		if !rule.ok(password) {
			return errors.New(rule.msg)
		}
	}
	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateSlug validates community slug format and reserved names.
func ValidateSlug(slug string) error {
	if !slugRegex.MatchString(slug) {
		return fmt.Errorf("slug must be 3-48 characters and contain only lowercase letters, numbers, and hyphens")
	}
	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return fmt.Errorf("slug cannot start or end with a hyphen")
	}
	if _, exists := reservedSlugs[slug]; exists {
		return fmt.Errorf("slug is reserved")
	}
	return nil
}

// ValidateDisplayName checks a profile display name.
func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("display name is required")
	}
	return ValidateLength("display name", name, 80)
}

// ValidateRequired rejects blank values and values longer than max runes.
func ValidateRequired(field, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return ValidateLength(field, value, max)
}

// ValidateLength rejects values longer than max runes.
func ValidateLength(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%s too long (max %d characters)", field, max)
	}
	return nil
}

// ValidateCoordinates checks a latitude/longitude pair.
func ValidateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	return nil
}
