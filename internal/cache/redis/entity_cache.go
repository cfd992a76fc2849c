package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alphaledger/ledgerd/internal/domain"
	"github.com/alphaledger/ledgerd/internal/ledger"
)

const entityTTL = 5 * time.Minute

// EntityCache implements domain.EntityCache using Redis string values with
// JSON-serialized wire forms. Entries carry a short TTL; the change-event
// stream invalidates them sooner when the authority reports a write.
//
// Key schema:
//
//	txn:{assetManagerID}:{transactionID}  - JSON transaction
//	pos:{assetManagerID}:{bookID}:{assetID} - JSON position
type EntityCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewEntityCache creates an EntityCache backed by the given Client. A ttl of
// 0 uses the default.
func NewEntityCache(c *Client, ttl time.Duration) *EntityCache {
	if ttl <= 0 {
		ttl = entityTTL
	}
	return &EntityCache{rdb: c.Underlying(), ttl: ttl}
}

func transactionKey(assetManagerID int64, transactionID string) string {
	return fmt.Sprintf("txn:%d:%s", assetManagerID, transactionID)
}

func positionKey(assetManagerID int64, bookID, assetID string) string {
	return fmt.Sprintf("pos:%d:%s:%s", assetManagerID, bookID, assetID)
}

// SetTransaction stores a transaction under its owner-scoped key.
func (ec *EntityCache) SetTransaction(ctx context.Context, txn domain.Transaction) error {
	data, err := json.Marshal(ledger.FromTransaction(&txn))
	if err != nil {
		return fmt.Errorf("redis: marshal transaction %s: %w", txn.TransactionID, err)
	}

	key := transactionKey(txn.AssetManagerID, txn.TransactionID)
	if err := ec.rdb.Set(ctx, key, data, ec.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set transaction %s: %w", txn.TransactionID, err)
	}
	return nil
}

// GetTransaction retrieves a cached transaction.
// It returns domain.ErrNotFound when the key does not exist.
func (ec *EntityCache) GetTransaction(ctx context.Context, assetManagerID int64, transactionID string) (domain.Transaction, error) {
	data, err := ec.rdb.Get(ctx, transactionKey(assetManagerID, transactionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Transaction{}, domain.ErrNotFound
		}
		return domain.Transaction{}, fmt.Errorf("redis: get transaction %s: %w", transactionID, err)
	}

	var api ledger.APITransaction
	if err := json.Unmarshal(data, &api); err != nil {
		return domain.Transaction{}, fmt.Errorf("redis: unmarshal transaction %s: %w", transactionID, err)
	}
	return api.ToDomain(), nil
}

// InvalidateTransaction removes a cached transaction.
func (ec *EntityCache) InvalidateTransaction(ctx context.Context, assetManagerID int64, transactionID string) error {
	if err := ec.rdb.Del(ctx, transactionKey(assetManagerID, transactionID)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate transaction %s: %w", transactionID, err)
	}
	return nil
}

// SetPosition stores a position under its (owner, book, asset) key.
func (ec *EntityCache) SetPosition(ctx context.Context, pos domain.Position) error {
	data, err := json.Marshal(ledger.FromPosition(pos))
	if err != nil {
		return fmt.Errorf("redis: marshal position %s/%s: %w", pos.BookID, pos.AssetID, err)
	}

	key := positionKey(pos.AssetManagerID, pos.BookID, pos.AssetID)
	if err := ec.rdb.Set(ctx, key, data, ec.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set position %s/%s: %w", pos.BookID, pos.AssetID, err)
	}
	return nil
}

// GetPosition retrieves a cached position.
// It returns domain.ErrNotFound when the key does not exist.
func (ec *EntityCache) GetPosition(ctx context.Context, assetManagerID int64, bookID, assetID string) (domain.Position, error) {
	data, err := ec.rdb.Get(ctx, positionKey(assetManagerID, bookID, assetID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Position{}, domain.ErrNotFound
		}
		return domain.Position{}, fmt.Errorf("redis: get position %s/%s: %w", bookID, assetID, err)
	}

	var api ledger.APIPosition
	if err := json.Unmarshal(data, &api); err != nil {
		return domain.Position{}, fmt.Errorf("redis: unmarshal position %s/%s: %w", bookID, assetID, err)
	}
	return api.ToDomain()
}

// InvalidatePosition removes a cached position.
func (ec *EntityCache) InvalidatePosition(ctx context.Context, assetManagerID int64, bookID, assetID string) error {
	if err := ec.rdb.Del(ctx, positionKey(assetManagerID, bookID, assetID)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate position %s/%s: %w", bookID, assetID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.EntityCache = (*EntityCache)(nil)
