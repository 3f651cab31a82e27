// Package validate holds input checks shared by the service and view layers.
package validate

import (
	"net/mail"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/vidshare/backend/internal/apperr"
)

// ID fails BadRequest unless value is a well-formed identifier. name labels the
// field in the message, e.g. "video" yields "invalid video id".
func ID(value, name string) error {
	if strings.TrimSpace(value) == "" {
		return apperr.New(apperr.BadRequest, name+" id is required")
	}
	if _, err := uuid.Parse(value); err != nil {
		return apperr.New(apperr.BadRequest, "invalid "+name+" id")
	}
	return nil
}

// Required fails BadRequest when any of the named values is blank.
func Required(fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return apperr.New(apperr.BadRequest, strings.Join(missing, ", ")+" required")
}

// usernamePattern never admits '@', so a username can not collide with an email.
var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{2,29}$`)

// Username fails BadRequest unless value is 3 to 30 lowercase letters, digits,
// dots, underscores or hyphens, starting with a letter or digit.
func Username(value string) error {
	if !usernamePattern.MatchString(value) {
		return apperr.New(apperr.BadRequest, "username must be 3-30 characters of letters, digits, '.', '_' or '-'")
	}
	return nil
}

// Email fails BadRequest unless value is a bare address such as a@b.c.
func Email(value string) error {
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value || addr.Name != "" {
		return apperr.New(apperr.BadRequest, "invalid email address")
	}
	return nil
}
