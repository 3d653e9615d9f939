package simdevice

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNewCallbackSink(t *testing.T) {
	var received []*SampleBatch
	sink := NewCallbackSink("cb", func(batch []*SampleBatch) error {
		received = append(received, batch...)
		return nil
	})

	input := &SampleBatch{DeviceID: "ecg-1", Tick: 42, Vitals: map[string]float64{"heart_rate": 72}}

	if err := sink.WriteBatch([]*SampleBatch{input}); err != nil {
		t.Fatalf("WriteBatch returned error: %v", err)
	}
	if len(received) != 1 {
		t.Fatalf("expected 1 batch entry, got %d", len(received))
	}
	if got := received[0]; got.DeviceID != "ecg-1" || got.Tick != 42 {
		t.Fatalf("mismatched payload: %+v", got)
	}
	if err := sink.WriteBatch(nil); err != nil {
		t.Fatalf("empty write should be a no-op, got %v", err)
	}
}

func TestNewCallbackSinkNilHandler(t *testing.T) {
	sink := NewCallbackSink("", nil)
	if sink.Name() != "callback" {
		t.Fatalf("expected default name, got %s", sink.Name())
	}
	if err := sink.WriteBatch([]*SampleBatch{{DeviceID: "s"}}); err == nil {
		t.Fatalf("expected error when callback is nil")
	}
}

func TestNewChannelSink(t *testing.T) {
	sink, ch, closeFn := NewChannelSink("chan", 1)
	defer closeFn()

	input := &SampleBatch{DeviceID: "spo2-1", Tick: 7}
	errCh := make(chan error, 1)

	go func() {
		errCh <- sink.WriteBatch([]*SampleBatch{input})
	}()

	var batch []*SampleBatch
	select {
	case batch = <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel batch")
	}

	if err := <-errCh; err != nil {
		t.Fatalf("WriteBatch returned error: %v", err)
	}
	if len(batch) != 1 || batch[0].DeviceID != input.DeviceID {
		t.Fatalf("unexpected batch data: %+v", batch)
	}

	closeFn()
	if err := sink.WriteBatch([]*SampleBatch{input}); !errors.Is(err, ErrChannelSinkClosed) {
		t.Fatalf("expected ErrChannelSinkClosed, got %v", err)
	}
}

func TestChannelSinkCloseReleasesBlockedWriter(t *testing.T) {
	sink, _, closeFn := NewChannelSink("chan", 0)

	errCh := make(chan error, 1)
	go func() {
		errCh <- sink.WriteBatch([]*SampleBatch{{DeviceID: "x"}})
	}()
	time.Sleep(10 * time.Millisecond)
	closeFn()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrChannelSinkClosed) {
			t.Fatalf("expected ErrChannelSinkClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked writer was not released by close")
	}
}

func TestJSONLinesSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONLinesSink("", &buf)

	err := sink.WriteBatch([]*SampleBatch{
		{DeviceID: "ecg-1", Kind: KindECG, Tick: 0, Timestamp: 1000, Channels: []Channel{{Name: "II", Values: []float64{0.1, 0.2}}}},
		{DeviceID: "ecg-1", Kind: KindECG, Tick: 1, Timestamp: 1005},
	})
	if err != nil {
		t.Fatalf("WriteBatch returned error: %v", err)
	}

	sc := bufio.NewScanner(&buf)
	var lines []map[string]any
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line is not JSON: %v", err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0]["device_id"] != "ecg-1" || lines[1]["ts_ms"] != float64(1005) {
		t.Fatalf("unexpected content: %+v", lines)
	}
}
