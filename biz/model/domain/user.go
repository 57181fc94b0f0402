package domain

import "time"

// AccountState is persisted as a small integer. The zero value is not a
// valid state and is never admitted.
type AccountState int8

const (
	StateNormal   AccountState = 1
	StateFreeze   AccountState = 2
	StateDisabled AccountState = 3
)

// IsLoginAllowed admits only StateNormal. Unknown states are denied.
func (s AccountState) IsLoginAllowed() bool {
	return s == StateNormal
}

func (s AccountState) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateFreeze:
		return "freeze"
	case StateDisabled:
		return "disabled"
	}
	return "unknown"
}

// Account is the credential record of a user.
type Account struct {
	UserID       string
	Account      string
	PasswordHash string
	Salt         string
	State        AccountState
	Phone        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TokenInfo is returned by a successful login.
type TokenInfo struct {
	Token     string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
