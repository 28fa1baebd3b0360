package app

import "time"

// RegisterRequest is the input for creating a user account.
type RegisterRequest struct {
	Username string
	Password string
	Email    string
	FullName string
	Phone    string
}

// Options carries the presentation settings shared by every adapter.
type Options struct {
	PageSize       int
	SearchDebounce time.Duration
	PhoneRegion    string
	Language       string
}
