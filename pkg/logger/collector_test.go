package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu      sync.Mutex
	topics  []string
	batches []LogBatch
}

func (p *recordingPublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	batch, ok := payload.(LogBatch)
	if !ok {
		return errors.New("unexpected payload")
	}
	p.topics = append(p.topics, topic)
	p.batches = append(p.batches, batch)
	return nil
}

func TestCollectorDeduplicatesAndFlushesOnClose(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 10,
		Topic:          "logs",
		Source:         "test",
		Publisher:      pub,
	})

	c.AddLog("error", "fetch failed", map[string]interface{}{"symbol": "^VIX"}, "a.go:1")
	c.AddLog("error", "fetch failed", map[string]interface{}{"symbol": "^VIX"}, "a.go:1")
	c.AddLog("error", "fetch failed", map[string]interface{}{"symbol": "GC=F"}, "a.go:1")
	c.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	assert.Equal(t, "logs", pub.topics[0])
	batch := pub.batches[0]
	assert.Equal(t, "test", batch.Source)
	require.Len(t, batch.Entries, 2)
	assert.Equal(t, 2, batch.Entries[0].Count)
	assert.Equal(t, 1, batch.Entries[1].Count)
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 2,
		Topic:          "logs",
		Publisher:      pub,
	})

	c.AddLog("error", "one", nil, "a.go:1")
	c.AddLog("error", "two", nil, "a.go:2")
	c.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	assert.Len(t, pub.batches[0].Entries, 2)
}

func TestLoggerErrorFeedsCollector(t *testing.T) {
	pub := &recordingPublisher{}
	l := NewNop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Topic: "logs", Publisher: pub})

	l.With(String("component", "fetcher")).Error("boom", String("symbol", "EWZ"))
	l.Info("ignored")
	l.RemoveCollector()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	require.Len(t, pub.batches[0].Entries, 1)
	entry := pub.batches[0].Entries[0]
	assert.Equal(t, "boom", entry.Message)
	assert.Equal(t, "EWZ", entry.Fields["symbol"])
}

func TestChildCreatedBeforeCollectorStillCollects(t *testing.T) {
	pub := &recordingPublisher{}
	l := NewNop()
	child := l.With(String("component", "pipeline"))
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Topic: "logs", Publisher: pub})

	child.Error("dropped", Int("attempts", 3))
	l.RemoveCollector()
	child.Error("after removal")

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	require.Len(t, pub.batches[0].Entries, 1)
	entry := pub.batches[0].Entries[0]
	assert.Equal(t, "pipeline", entry.Fields["component"])
	assert.Equal(t, 3, entry.Fields["attempts"])
	assert.Contains(t, entry.Caller, "collector_test.go:")
}
