package storage

import (
	"context"
	"io"
	"time"

	"github.com/aman-zulfiqar/hive-engine-go/internal/models"
)

// QueryCache holds serialized query results for a short time
type QueryCache interface {
	// Get returns the cached value and whether it was present
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for ttl
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	io.Closer
}

// OpPublisher hands unsigned operations to an external signer
type OpPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// OpSubscriber receives operations published on a channel
type OpSubscriber interface {
	Subscribe(ctx context.Context, channel string, handler func([]byte)) error
}

// BlockHandler processes one sidechain block
type BlockHandler func(ctx context.Context, block *models.Block) error

// BlockSource delivers sidechain blocks in order
type BlockSource interface {
	// Start begins delivering blocks and blocks until ctx is done
	Start(ctx context.Context, handler BlockHandler) error

	// Stop stops the source
	Stop() error
}
