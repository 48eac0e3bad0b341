// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	PasswordMinLength = 8
	PasswordMaxBytes  = 72
	NameMinLength     = 2
	NameMaxLength     = 100
	PostTitleMin      = 2
	PostTitleMax      = 200
	PostContentMin    = 10
	CategoryMax       = 50
)

var phonePattern = regexp.MustCompile(`^09[0-9]{9}$`)

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a bare address (no display name).
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return fmt.Errorf("email is not a valid address")
	}
	return nil
}

// ValidatePassword checks the signup password length. The upper bound is in
// bytes because bcrypt refuses longer inputs.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < PasswordMinLength {
		return fmt.Errorf("password must be at least %d characters long", PasswordMinLength)
	}
	if len(password) > PasswordMaxBytes {
		return fmt.Errorf("password must not exceed %d bytes", PasswordMaxBytes)
	}
	return nil
}

// ValidateName checks a display name after trimming.
func ValidateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < NameMinLength {
		return fmt.Errorf("name must be at least %d characters long", NameMinLength)
	}
	if n > NameMaxLength {
		return fmt.Errorf("name must not exceed %d characters", NameMaxLength)
	}
	return nil
}

// ValidatePhone checks an Iranian mobile number: 09 followed by nine digits.
func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return fmt.Errorf("phone number must match 09XXXXXXXXX")
	}
	return nil
}

// ValidatePostTitle checks a trimmed post title.
func ValidatePostTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n < PostTitleMin {
		return fmt.Errorf("title must be at least %d characters long", PostTitleMin)
	}
	if n > PostTitleMax {
		return fmt.Errorf("title must not exceed %d characters", PostTitleMax)
	}
	return nil
}

// ValidatePostContent checks trimmed post content.
func ValidatePostContent(content string) error {
	if utf8.RuneCountInString(strings.TrimSpace(content)) < PostContentMin {
		return fmt.Errorf("content must be at least %d characters long", PostContentMin)
	}
	return nil
}

// ValidateCategory checks an optional, already trimmed category.
func ValidateCategory(category *string) error {
	if category != nil && utf8.RuneCountInString(*category) > CategoryMax {
		return fmt.Errorf("category must not exceed %d characters", CategoryMax)
	}
	return nil
}

// Required reports an error naming field when value is blank.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

// TrimOptional trims s; blank strings become nil.
func TrimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
