// Package feed fans out per-character records to connected clients and
// keeps a short-lived history of recent records per character.
package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/calybre/wayfarer/cache"
	"github.com/calybre/wayfarer/game/rules"
)

// historyLen is how many recent records are retained per character.
const historyLen = 200

// Feed publishes committed records over pub/sub and stores a capped
// per-character history in the cache. It implements rules.RecordSink.
type Feed struct {
	cache  cache.Cache
	pubsub cache.PubSub
	log    *zap.Logger
}

// New creates a Feed over the given cache and pub/sub backends.
func New(c cache.Cache, ps cache.PubSub, log *zap.Logger) *Feed {
	return &Feed{cache: c, pubsub: ps, log: log}
}

// Channel returns the pub/sub channel name for a character's records.
func Channel(characterUUID string) string {
	return fmt.Sprintf("records:%s", characterUUID)
}

func historyKey(characterUUID string) string {
	return fmt.Sprintf("records:hist:%s", characterUUID)
}

// Publish sends the records to subscribers and appends them to the
// character's history. Errors are logged, never surfaced to the caller,
// since the operation that produced the records has already committed.
func (f *Feed) Publish(ctx context.Context, characterUUID string, records []rules.Record) {
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			f.log.Error("marshal record failed",
				zap.String("character", characterUUID), zap.Error(err))
			continue
		}
		payload := string(data)
		if err := f.pubsub.Publish(ctx, Channel(characterUUID), payload); err != nil {
			f.log.Error("publish record failed",
				zap.String("character", characterUUID), zap.Error(err))
		}
		if err := f.cache.LPush(ctx, historyKey(characterUUID), payload); err != nil {
			f.log.Error("push record history failed",
				zap.String("character", characterUUID), zap.Error(err))
		}
	}
	if err := f.cache.LTrim(ctx, historyKey(characterUUID), 0, historyLen-1); err != nil {
		f.log.Error("trim record history failed",
			zap.String("character", characterUUID), zap.Error(err))
	}
}

// History returns up to limit recent records for a character, newest first.
func (f *Feed) History(ctx context.Context, characterUUID string, limit int) ([]rules.Record, error) {
	if limit <= 0 || limit > historyLen {
		limit = historyLen
	}
	items, err := f.cache.LRange(ctx, historyKey(characterUUID), 0, int64(limit-1))
	if err != nil {
		return nil, err
	}
	records := make([]rules.Record, 0, len(items))
	for _, item := range items {
		var rec rules.Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			f.log.Warn("skipping malformed record in history",
				zap.String("character", characterUUID), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Subscribe opens a live stream of a character's records. The cancel
// function must be called when the stream is no longer needed.
func (f *Feed) Subscribe(ctx context.Context, characterUUID string) (<-chan *cache.Message, func(), error) {
	return f.pubsub.Subscribe(ctx, Channel(characterUUID))
}
