package validation

import (
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	slugRegex     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
)

// ObjectID parses a hex string into an ObjectID
func ObjectID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid id %q", hex)
	}
	return id, nil
}

// IsEmail reports whether the string is a plausible email address
func IsEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// IsSlug reports whether the string is a well-formed URL slug: lowercase
// alphanumeric runs separated by single hyphens
func IsSlug(s string) bool {
	return slugRegex.MatchString(s)
}

// IsUsername reports whether the string is a valid account name
func IsUsername(s string) bool {
	return usernameRegex.MatchString(s)
}
