package queue

import (
	"testing"

	"github.com/waehniger/mdpnp/internal/domain"
)

func TestMemQueueEnqueueDequeueOrder(t *testing.T) {
	q := NewMemQueue(4)

	b1 := &domain.SampleBatch{DeviceID: "ecg-1", Tick: 0}
	b2 := &domain.SampleBatch{DeviceID: "ecg-1", Tick: 1}

	if !q.Enqueue(1, b1) || !q.Enqueue(2, b2) {
		t.Fatalf("expected successful enqueue")
	}

	batch := q.DequeueBatch(1)
	if len(batch) != 1 || batch[0].Seq != 1 || batch[0].Batch.Tick != 0 {
		t.Fatalf("unexpected first batch: %+v", batch)
	}

	remaining := q.DequeueBatch(10)
	if len(remaining) != 1 || remaining[0].Seq != 2 {
		t.Fatalf("unexpected second batch: %+v", remaining)
	}

	if q.Len() != 0 {
		t.Fatalf("queue should be empty, got %d", q.Len())
	}
	if got := q.DequeueBatch(0); got != nil {
		t.Fatalf("expected nil from empty queue, got %+v", got)
	}
}

func TestMemQueueCapacity(t *testing.T) {
	q := NewMemQueue(2)

	b := &domain.SampleBatch{DeviceID: "cap"}

	if !q.Enqueue(1, b) || !q.Enqueue(2, b) {
		t.Fatalf("expected enqueue within capacity")
	}
	if q.Enqueue(3, b) {
		t.Fatalf("enqueue should fail when capacity exceeded")
	}

	q.DequeueBatch(1)
	if !q.Enqueue(4, b) {
		t.Fatalf("expected enqueue to succeed after dequeue")
	}
	if q.Cap() != 2 {
		t.Fatalf("expected cap 2, got %d", q.Cap())
	}
}

func TestMemQueueWrapsAround(t *testing.T) {
	q := NewMemQueue(3)
	var seq uint64
	for round := 0; round < 5; round++ {
		for i := 0; i < 2; i++ {
			seq++
			if !q.Enqueue(seq, &domain.SampleBatch{Tick: seq}) {
				t.Fatalf("round %d: enqueue %d failed", round, seq)
			}
		}
		out := q.DequeueBatch(0)
		if len(out) != 2 || out[0].Seq != seq-1 || out[1].Seq != seq {
			t.Fatalf("round %d: unexpected batch %+v", round, out)
		}
	}
}

func TestMemQueueDropOldest(t *testing.T) {
	q := NewMemQueue(2)
	if _, ok := q.DropOldest(); ok {
		t.Fatalf("drop on empty queue should report false")
	}

	q.Enqueue(1, &domain.SampleBatch{Tick: 1})
	q.Enqueue(2, &domain.SampleBatch{Tick: 2})

	dropped, ok := q.DropOldest()
	if !ok || dropped.Seq != 1 {
		t.Fatalf("expected seq 1 dropped, got %+v ok=%v", dropped, ok)
	}
	if !q.Enqueue(3, &domain.SampleBatch{Tick: 3}) {
		t.Fatalf("expected room after drop")
	}
	out := q.DequeueBatch(0)
	if len(out) != 2 || out[0].Seq != 2 || out[1].Seq != 3 {
		t.Fatalf("unexpected order after drop: %+v", out)
	}
}
