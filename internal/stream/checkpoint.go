package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	checkpointIndexKey = "hiveengine:checkpoints"
	checkpointPrefix   = "hiveengine:checkpoint:"
)

var ErrNoCheckpoint = errors.New("checkpoint not found")

var checkpointNameRe = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,128}$`)

// Checkpoint is the next block a named stream has to read
type Checkpoint struct {
	Name      string    `json:"name"`
	NextBlock int64     `json:"next_block"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CheckpointStore keeps stream positions in Redis so a restarted streamer
// resumes where it stopped
type CheckpointStore struct {
	client redis.Cmdable
}

func NewCheckpointStore(client redis.Cmdable) (*CheckpointStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &CheckpointStore{client: client}, nil
}

func ValidateCheckpointName(name string) error {
	if !checkpointNameRe.MatchString(name) {
		return fmt.Errorf("invalid checkpoint name")
	}
	return nil
}

func (s *CheckpointStore) Save(ctx context.Context, name string, nextBlock int64) (*Checkpoint, error) {
	if err := ValidateCheckpointName(name); err != nil {
		return nil, err
	}
	if nextBlock <= 0 {
		return nil, fmt.Errorf("next block must be positive, got %d", nextBlock)
	}

	cp := &Checkpoint{Name: name, NextBlock: nextBlock, UpdatedAt: time.Now().UTC()}
	b, err := json.Marshal(cp)
	if err != nil {
		return nil, fmt.Errorf("marshal checkpoint: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, checkpointKey(name), b, 0)
	pipe.SAdd(ctx, checkpointIndexKey, name)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("save checkpoint: %w", err)
	}
	return cp, nil
}

func (s *CheckpointStore) Load(ctx context.Context, name string) (*Checkpoint, error) {
	if err := ValidateCheckpointName(name); err != nil {
		return nil, err
	}

	val, err := s.client.Get(ctx, checkpointKey(name)).Result()
	if err == redis.Nil {
		return nil, ErrNoCheckpoint
	}
	if err != nil {
		return nil, fmt.Errorf("get checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal([]byte(val), &cp); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	return &cp, nil
}

func (s *CheckpointStore) List(ctx context.Context) ([]*Checkpoint, error) {
	names, err := s.client.SMembers(ctx, checkpointIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list checkpoint index: %w", err)
	}

	keys := make([]string, 0, len(names))
	for _, n := range names {
		if ValidateCheckpointName(n) != nil {
			continue
		}
		keys = append(keys, checkpointKey(n))
	}
	if len(keys) == 0 {
		return []*Checkpoint{}, nil
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget checkpoints: %w", err)
	}

	out := make([]*Checkpoint, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var cp Checkpoint
		if err := json.Unmarshal([]byte(str), &cp); err != nil {
			continue
		}
		out = append(out, &cp)
	}
	return out, nil
}

func (s *CheckpointStore) Delete(ctx context.Context, name string) error {
	if err := ValidateCheckpointName(name); err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, checkpointKey(name))
	pipe.SRem(ctx, checkpointIndexKey, name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

func checkpointKey(name string) string {
	return checkpointPrefix + name
}
