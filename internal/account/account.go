package account

import (
	"context"
	"time"
)

// Account is the record shared between the Service and the Store.
type Account struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Balance   float64   `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the persistence contract the Service depends on.
//
// Lookups that match no document return a nil *Account and a nil error.
type Store interface {
	Insert(ctx context.Context, acc Account) (Account, error)
	FindAll(ctx context.Context) ([]Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	SetBalance(ctx context.Context, id string, balance float64) (*Account, error)
	// IncrementBalance fails with ErrBalanceOutOfRange instead of storing a
	// non-finite balance.
	IncrementBalance(ctx context.Context, id string, delta float64) (*Account, error)
	Delete(ctx context.Context, id string) error
}
