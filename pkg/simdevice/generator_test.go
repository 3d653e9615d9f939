package simdevice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorStartStopClose(t *testing.T) {
	cfg, err := NewGeneratorConfig(72, 2, Metronome, 0)
	require.NoError(t, err)
	cfg.OriginMs = Ptr(testOrigin)

	batches := make(chan *SampleBatch, 64)
	gen, err := NewGenerator(KindECG, cfg, ConsumerFunc(func(b *SampleBatch) error {
		select {
		case batches <- b:
		default:
		}
		return nil
	}))
	require.NoError(t, err)

	require.NoError(t, gen.Start())
	assert.ErrorIs(t, gen.Start(), ErrAlreadyConnected)

	for i := 0; i < 3; i++ {
		select {
		case b := <-batches:
			assert.Equal(t, uint64(i), b.Tick)
			assert.Equal(t, testOrigin+int64(i)*2, b.Timestamp)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for batch")
		}
	}

	gen.Stop()
	assert.False(t, gen.Publisher().Connected())

	require.NoError(t, gen.Close(context.Background()))
	require.NoError(t, gen.Close(context.Background()))
}

func TestNewGeneratorUnknownKind(t *testing.T) {
	cfg, err := NewGeneratorConfig(72, 2, Metronome, 0)
	require.NoError(t, err)
	_, err = NewGenerator("eeg", cfg, ConsumerFunc(func(*SampleBatch) error { return nil }))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
