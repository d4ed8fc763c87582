package model

import "time"

// User represents a registered customer.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
}

// Registration is the input of account creation.
type Registration struct {
	Email     string `validate:"required,email,max=255"`
	Password  string `validate:"required,min=6,max=72"`
	FirstName string `validate:"max=100"`
	LastName  string `validate:"max=100"`
}
