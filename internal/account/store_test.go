package account

import (
	"context"
	"errors"
	"math"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory Store that mirrors the Repository's contract:
// malformed ids fail with ErrInvalidID, misses return (nil, nil).
type memStore struct {
	mu       sync.Mutex
	accounts map[string]Account
	order    []string

	// failWith, when set, is returned by every operation.
	failWith error
}

func newMemStore() *memStore {
	return &memStore{accounts: make(map[string]Account)}
}

var _ Store = (*memStore)(nil)

func (m *memStore) checkID(id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

func (m *memStore) Insert(_ context.Context, acc Account) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return Account{}, m.failWith
	}

	acc.ID = primitive.NewObjectID().Hex()
	m.accounts[acc.ID] = acc
	m.order = append(m.order, acc.ID)
	return acc, nil
}

func (m *memStore) FindAll(_ context.Context) ([]Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}

	out := make([]Account, 0, len(m.accounts))
	for _, id := range m.order {
		if acc, ok := m.accounts[id]; ok {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (m *memStore) FindByID(_ context.Context, id string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkID(id); err != nil {
		return nil, err
	}
	if m.failWith != nil {
		return nil, m.failWith
	}

	acc, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	return &acc, nil
}

func (m *memStore) SetBalance(_ context.Context, id string, balance float64) (*Account, error) {
	return m.mutate(id, func(acc *Account) error {
		acc.Balance = balance
		return nil
	})
}

func (m *memStore) IncrementBalance(_ context.Context, id string, delta float64) (*Account, error) {
	return m.mutate(id, func(acc *Account) error {
		next := acc.Balance + delta
		if math.IsInf(next, 0) {
			return ErrBalanceOutOfRange
		}
		acc.Balance = next
		return nil
	})
}

func (m *memStore) mutate(id string, fn func(*Account) error) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkID(id); err != nil {
		return nil, err
	}
	if m.failWith != nil {
		return nil, m.failWith
	}

	acc, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	if err := fn(&acc); err != nil {
		return nil, err
	}
	m.accounts[id] = acc
	return &acc, nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkID(id); err != nil {
		return err
	}
	if m.failWith != nil {
		return m.failWith
	}

	delete(m.accounts, id)
	return nil
}

func (m *memStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.accounts)
}

var errStoreDown = errors.Join(ErrStorage, errors.New("connection refused"))
