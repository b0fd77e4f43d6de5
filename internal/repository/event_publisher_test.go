package repository

import (
	"context"
	"encoding/json"
	"testing"

	"CrashRadar/internal/domain/models"
	pkgkafka "CrashRadar/pkg/kafka"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memWriter struct{ msgs []kafka.Message }

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error { return nil }

func TestKafkaEventPublisher(t *testing.T) {
	w := &memWriter{}
	pub := NewKafkaEventPublisher(pkgkafka.NewProducerWithWriter(w, "gzip"), "crashradar.predictions")

	ev := &models.PredictionEvent{
		ContractVersion: "v1",
		ModelKind:       "random_forest",
		AsOf:            "2024-03-04",
		Prediction:      1,
		Features:        map[string]float64{"VIX": 21.5},
	}
	require.NoError(t, pub.PublishPrediction(context.Background(), ev))
	require.NoError(t, pub.PublishMessage(context.Background(), "crashradar.logs", map[string]string{"k": "v"}))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "crashradar.predictions", w.msgs[0].Topic)
	assert.Equal(t, []byte("v1"), w.msgs[0].Key)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, 1.0, decoded["model_prediction"])
	assert.Nil(t, decoded["model_probability"])
	assert.Equal(t, "crashradar.logs", w.msgs[1].Topic)

	assert.Error(t, pub.PublishPrediction(context.Background(), nil))
	assert.NoError(t, pub.Close())
}
