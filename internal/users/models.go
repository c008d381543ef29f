package users

import (
	"time"

	"github.com/swiftcart/backend/internal/auth"
)

type Status string

const (
	StatusActive    Status = "Active"
	StatusInactive  Status = "Inactive"
	StatusSuspended Status = "Suspended"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Mobile       string    `json:"mobile"`
	Role         auth.Role `json:"role"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Address struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Line1     string    `json:"addressLine1"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	PinCode   string    `json:"pinCode"`
	Country   string    `json:"country"`
	Mobile    string    `json:"mobile"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
