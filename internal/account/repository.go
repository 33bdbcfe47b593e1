package account

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// CollectionName is the collection holding one document per account.
const CollectionName = "accounts"

// accountDocument is the persisted shape of an Account.
type accountDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email,omitempty"`
	Balance   float64            `bson:"balance"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d accountDocument) toAccount() Account {
	return Account{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		Balance:   d.Balance,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// Repository is the MongoDB implementation of Store.
type Repository struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

func NewRepository(db *mongo.Database, logger *zap.Logger) *Repository {
	return &Repository{
		coll:   db.Collection(CollectionName),
		logger: logger,
	}
}

// parseID rejects identifiers that can never match a document, before any
// round trip to the server.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}

func (r *Repository) Insert(ctx context.Context, acc Account) (Account, error) {
	doc := accountDocument{
		Name:      acc.Name,
		Email:     acc.Email,
		Balance:   acc.Balance,
		CreatedAt: acc.CreatedAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		r.logger.Error("inserting account", zap.Error(err))
		return Account{}, fmt.Errorf("%w: inserting account: %w", ErrStorage, err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return Account{}, fmt.Errorf("%w: unexpected inserted id type %T", ErrStorage, res.InsertedID)
	}

	doc.ID = oid
	return doc.toAccount(), nil
}

func (r *Repository) FindAll(ctx context.Context) ([]Account, error) {
	cur, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		r.logger.Error("listing accounts", zap.Error(err))
		return nil, fmt.Errorf("%w: listing accounts: %w", ErrStorage, err)
	}
	defer cur.Close(ctx)

	accounts := make([]Account, 0)
	for cur.Next(ctx) {
		var doc accountDocument
		if err := cur.Decode(&doc); err != nil {
			r.logger.Error("decoding account", zap.Error(err))
			return nil, fmt.Errorf("%w: decoding account: %w", ErrStorage, err)
		}
		accounts = append(accounts, doc.toAccount())
	}
	if err := cur.Err(); err != nil {
		r.logger.Error("iterating accounts", zap.Error(err))
		return nil, fmt.Errorf("%w: iterating accounts: %w", ErrStorage, err)
	}

	return accounts, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*Account, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var doc accountDocument
	err = r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("finding account", zap.String("account_id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: finding account: %w", ErrStorage, err)
	}

	acc := doc.toAccount()
	return &acc, nil
}

// SetBalance overwrites the balance with an absolute value.
func (r *Repository) SetBalance(ctx context.Context, id string, balance float64) (*Account, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.update(ctx, id, bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "balance", Value: balance}}}})
}

// IncrementBalance adds delta to the stored balance in a single atomic
// server-side operation. The filter only matches while the sum stays finite,
// so a miss on an existing account is reported as ErrBalanceOutOfRange.
func (r *Repository) IncrementBalance(ctx context.Context, id string, delta float64) (*Account, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	filter := bson.D{{Key: "_id", Value: oid}}
	bound := incrementBound(delta)
	if bound != nil {
		filter = append(filter, bson.E{Key: "balance", Value: bound})
	}

	acc, err := r.update(ctx, id, filter, bson.D{{Key: "$inc", Value: bson.D{{Key: "balance", Value: delta}}}})
	if err != nil || acc != nil || bound == nil {
		return acc, err
	}

	exists, err := r.exists(ctx, id, oid)
	if err != nil {
		return nil, err
	}
	if exists {
		r.logger.Warn("balance adjustment out of range", zap.String("account_id", id), zap.Float64("delta", delta))
		return nil, ErrBalanceOutOfRange
	}
	return nil, nil
}

// incrementBound limits the current balance to values that can absorb delta
// without overflowing float64.
func incrementBound(delta float64) bson.D {
	switch {
	case delta > 0:
		return bson.D{{Key: "$lte", Value: math.MaxFloat64 - delta}}
	case delta < 0:
		return bson.D{{Key: "$gte", Value: -math.MaxFloat64 - delta}}
	}
	return nil
}

func (r *Repository) update(ctx context.Context, id string, filter, update bson.D) (*Account, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc accountDocument
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("updating account balance", zap.String("account_id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: updating account balance: %w", ErrStorage, err)
	}

	acc := doc.toAccount()
	return &acc, nil
}

func (r *Repository) exists(ctx context.Context, id string, oid primitive.ObjectID) (bool, error) {
	opts := options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 1}})
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}, opts).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		r.logger.Error("looking up account", zap.String("account_id", id), zap.Error(err))
		return false, fmt.Errorf("%w: looking up account: %w", ErrStorage, err)
	}
	return true, nil
}

// Delete removes the account. Deleting an id that matches nothing is not an error.
func (r *Repository) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		r.logger.Error("deleting account", zap.String("account_id", id), zap.Error(err))
		return fmt.Errorf("%w: deleting account: %w", ErrStorage, err)
	}

	if res.DeletedCount == 0 {
		r.logger.Debug("delete matched no account", zap.String("account_id", id))
	}
	return nil
}
