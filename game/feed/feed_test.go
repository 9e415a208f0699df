package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/calybre/wayfarer/cache"
	"github.com/calybre/wayfarer/game/rules"
)

func newTestFeed(t *testing.T) *Feed {
	t.Helper()
	c, err := cache.NewCache(cache.CacheConfig{LocalGCInterval: time.Hour})
	require.NoError(t, err)
	ps, err := cache.NewPubSub(cache.CacheConfig{LocalPubSubBuf: 16})
	require.NoError(t, err)
	return New(c, ps, zap.NewNop())
}

func TestPublishAndHistory(t *testing.T) {
	f := newTestFeed(t)
	ctx := context.Background()

	recs := []rules.Record{
		{UUID: "r1", EntityUUID: "ch1", Type: rules.EffectModifyCoins, OldAmount: 5, NewAmount: 8, Comments: []string{"+3"}},
		{UUID: "r2", EntityUUID: "ch1", Type: rules.EffectModifyHealth, OldAmount: 20, NewAmount: 18},
	}
	f.Publish(ctx, "ch1", recs)

	hist, err := f.History(ctx, "ch1", 10)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	// newest first
	assert.Equal(t, "r2", hist[0].UUID)
	assert.Equal(t, "r1", hist[1].UUID)
	assert.Equal(t, rules.EffectModifyCoins, hist[1].Type)
	assert.Equal(t, []string{"+3"}, hist[1].Comments)
}

func TestHistoryIsPerCharacter(t *testing.T) {
	f := newTestFeed(t)
	ctx := context.Background()

	f.Publish(ctx, "ch1", []rules.Record{{UUID: "r1", EntityUUID: "ch1", Type: rules.EffectModifyCoins}})

	hist, err := f.History(ctx, "ch2", 10)
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestSubscribeReceivesPublished(t *testing.T) {
	f := newTestFeed(t)
	ctx := context.Background()

	ch, cancel, err := f.Subscribe(ctx, "ch1")
	require.NoError(t, err)
	defer cancel()

	f.Publish(ctx, "ch1", []rules.Record{{UUID: "r1", EntityUUID: "ch1", Type: rules.EffectModifyLuck, NewAmount: 4}})

	select {
	case msg := <-ch:
		assert.Contains(t, msg.Payload, `"uuid":"r1"`)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for record")
	}
}

func TestHistoryTrimmedToCap(t *testing.T) {
	f := newTestFeed(t)
	ctx := context.Background()

	batch := make([]rules.Record, historyLen+20)
	for i := range batch {
		batch[i] = rules.Record{UUID: "r", EntityUUID: "ch1", Type: rules.EffectModifyCoins, NewAmount: i}
	}
	f.Publish(ctx, "ch1", batch)

	hist, err := f.History(ctx, "ch1", historyLen+20)
	require.NoError(t, err)
	assert.Len(t, hist, historyLen)
}
