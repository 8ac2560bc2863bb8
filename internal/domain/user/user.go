package user

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kailas-cloud/cinesearch/internal/domain"
)

// Credential limits.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 32
	MinPasswordLength = 8
	// MaxPasswordLength is bcrypt's input limit in bytes.
	MaxPasswordLength = 72
	MaxEmailLength    = 254
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// User is a registered account (immutable value object).
type User struct {
	id           string
	username     string
	email        string
	passwordHash string
	createdAt    time.Time
}

// New validates and creates a User that has not been persisted yet (empty ID).
// Username and email are trimmed; the password must already be hashed.
func New(username, email, passwordHash string, createdAt time.Time) (User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if err := ValidateUsername(username); err != nil {
		return User{}, err
	}
	if err := ValidateEmail(email); err != nil {
		return User{}, err
	}
	if passwordHash == "" {
		return User{}, fmt.Errorf("%w: password hash is required", domain.ErrInvalidInput)
	}

	return User{
		username:     username,
		email:        email,
		passwordHash: passwordHash,
		createdAt:    createdAt.UTC(),
	}, nil
}

// Reconstruct creates a User without validation (storage hydration).
func Reconstruct(id, username, email, passwordHash string, createdAt time.Time) User {
	return User{id: id, username: username, email: email, passwordHash: passwordHash, createdAt: createdAt}
}

// ID returns the storage identifier.
func (u *User) ID() string { return u.id }

// Username returns the unique login name.
func (u *User) Username() string { return u.username }

// Email returns the contact address.
func (u *User) Email() string { return u.email }

// PasswordHash returns the bcrypt hash.
func (u *User) PasswordHash() string { return u.passwordHash }

// CreatedAt returns the registration time in UTC.
func (u *User) CreatedAt() time.Time { return u.createdAt }

// WithID returns a copy with the storage identifier set.
func (u *User) WithID(id string) User {
	return User{id: id, username: u.username, email: u.email, passwordHash: u.passwordHash, createdAt: u.createdAt}
}

// ValidateUsername checks length and the allowed character set.
func ValidateUsername(username string) error {
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return fmt.Errorf("%w: username must be %d-%d characters",
			domain.ErrInvalidInput, MinUsernameLength, MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("%w: username may contain letters, digits, '_', '.' and '-'", domain.ErrInvalidInput)
	}
	return nil
}

// ValidateEmail performs a shape check only; deliverability is not verified.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if len(email) > MaxEmailLength {
		return fmt.Errorf("%w: email too long (max %d)", domain.ErrInvalidInput, MaxEmailLength)
	}
	local, host, ok := strings.Cut(email, "@")
	if !ok || local == "" || host == "" || strings.ContainsAny(email, " \t\r\n") {
		return fmt.Errorf("%w: email is not valid", domain.ErrInvalidInput)
	}
	return nil
}

// ValidatePassword checks the plaintext password before hashing.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: password too long (max %d bytes)", domain.ErrInvalidInput, MaxPasswordLength)
	}
	return nil
}
