package account

import (
	"context"
	"math"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	minNameLen = 2
	maxNameLen = 100
)

// CreateInput carries the client-supplied fields of a new account.
// A nil Balance means the client omitted it.
type CreateInput struct {
	Name    string
	Email   string
	Balance *float64
}

type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// CreateAccount validates the business rules and persists a new account
// stamped with the current time.
func (s *Service) CreateAccount(ctx context.Context, in CreateInput) (Account, error) {
	if n := utf8.RuneCountInString(in.Name); n < minNameLen || n > maxNameLen {
		return Account{}, ErrInvalidName
	}

	var balance float64
	if in.Balance != nil {
		balance = *in.Balance
	}
	if balance < 0 {
		return Account{}, ErrNegativeBalance
	}

	acc, err := s.store.Insert(ctx, Account{
		Name:    in.Name,
		Email:   in.Email,
		Balance: balance,
		// BSON dates keep millisecond precision.
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	})
	if err != nil {
		return Account{}, err
	}

	s.logger.Info("account created", zap.String("account_id", acc.ID), zap.Float64("balance", acc.Balance))
	return acc, nil
}

// ListAccounts returns every stored account.
func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	return s.store.FindAll(ctx)
}

// GetAccount returns ErrNotFound when id resolves to nothing.
func (s *Service) GetAccount(ctx context.Context, id string) (Account, error) {
	acc, err := s.store.FindByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if acc == nil {
		return Account{}, ErrNotFound
	}
	return *acc, nil
}

// AdjustBalance adds delta (any sign) to the account balance. The result may
// be negative but must stay finite; ErrBalanceOutOfRange reports an
// adjustment that would overflow it.
func (s *Service) AdjustBalance(ctx context.Context, id string, delta float64) (Account, error) {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return Account{}, ErrInvalidAmount
	}

	acc, err := s.store.IncrementBalance(ctx, id, delta)
	if err != nil {
		return Account{}, err
	}
	if acc == nil {
		return Account{}, ErrNotFound
	}

	s.logger.Info("account balance adjusted",
		zap.String("account_id", acc.ID),
		zap.Float64("delta", delta),
		zap.Float64("balance", acc.Balance))
	return *acc, nil
}

// DeleteAccount removes the account; deleting a missing account succeeds.
func (s *Service) DeleteAccount(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("account deleted", zap.String("account_id", id))
	return nil
}
