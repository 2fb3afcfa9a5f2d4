package util

import (
	"runtime"
	"sync"
	"testing"
	"time"
)

// TestBasicOperations tests basic push and consume functionality
func TestBasicOperations(t *testing.T) {
	q := NewLockFreeMPSC[int]()
	defer q.Close()

	for i := 0; i < 10; i++ {
		if !q.Push(&i) {
			t.Fatalf("Failed to push item %d", i)
		}
	}

	for i := 0; i < 10; i++ {
		select {
		case val := <-q.Recv():
			if *val != i {
				t.Errorf("Expected %d, got %v", i, *val)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for item %d", i)
		}
	}

	select {
	case val := <-q.Recv():
		t.Errorf("Queue should be empty, but got %v", val)
	case <-time.After(10 * time.Millisecond):
	}
}

// frame mimics an outbound session frame: which producer sent it and its sequence
type frame struct {
	producer int
	seq      int
}

// TestPerProducerOrder verifies that every producer's items arrive in push order
// even when several producers push concurrently (relay from the opponent's
// handler and notifications from the matchmaker share one session queue)
func TestPerProducerOrder(t *testing.T) {
	q := NewLockFreeMPSC[frame]()
	defer q.Close()

	const numProducers = 8
	const itemsPerProducer = 2000
	totalItems := numProducers * itemsPerProducer

	done := make(chan struct{})
	lastSeq := make([]int, numProducers)
	for i := range lastSeq {
		lastSeq[i] = -1
	}

	go func() {
		defer close(done)
		for received := 0; received < totalItems; received++ {
			select {
			case f := <-q.Recv():
				if f.seq != lastSeq[f.producer]+1 {
					t.Errorf("producer %d: expected seq %d, got %d", f.producer, lastSeq[f.producer]+1, f.seq)
					return
				}
				lastSeq[f.producer] = f.seq
			case <-time.After(2 * time.Second):
				t.Errorf("Timeout waiting for items, received %d of %d", received, totalItems)
				return
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(numProducers)
	for p := 0; p < numProducers; p++ {
		go func(producer int) {
			defer wg.Done()
			for i := 0; i < itemsPerProducer; i++ {
				if !q.Push(&frame{producer: producer, seq: i}) {
					t.Errorf("Producer %d failed to push item %d", producer, i)
				}
				if i%100 == 0 {
					runtime.Gosched()
				}
			}
		}(p)
	}
	wg.Wait()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Timeout waiting for consumer to finish")
	}
}

// TestCloseQueue verifies that closing drains pending items and then closes Recv
func TestCloseQueue(t *testing.T) {
	q := NewLockFreeMPSC[int]()

	for i := 0; i < 5; i++ {
		q.Push(&i)
	}
	q.Close()

	val := 100
	if q.Push(&val) {
		t.Error("Should not be able to push after queue is closed")
	}
	if !q.IsClosed() {
		t.Error("IsClosed should report true after Close")
	}

	for i := 0; i < 5; i++ {
		select {
		case val := <-q.Recv():
			if *val != i {
				t.Errorf("Expected %d, got %v", i, *val)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for item %d after close", i)
		}
	}

	select {
	case _, ok := <-q.Recv():
		if ok {
			t.Error("Channel should be closed but is still open")
		}
	case <-time.After(time.Second):
		t.Fatal("Recv channel was not closed after draining")
	}
}

// TestCloseWakesIdleConsumer verifies an idle consumer observes Close
func TestCloseWakesIdleConsumer(t *testing.T) {
	q := NewLockFreeMPSC[int]()

	// let the consumer go to sleep on the empty list
	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case _, ok := <-q.Recv():
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("idle consumer did not observe Close")
	}
}

// TestPushNil verifies nil values are refused
func TestPushNil(t *testing.T) {
	q := NewLockFreeMPSC[int]()
	defer q.Close()

	if q.Push(nil) {
		t.Error("nil push should be refused")
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d", q.Len())
	}
}

// BenchmarkMultiProducer benchmarks the queue with multiple producers
func BenchmarkMultiProducer(b *testing.B) {
	q := NewLockFreeMPSC[int]()
	defer q.Close()

	go func() {
		for range q.Recv() {
		}
	}()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			q.Push(&i)
			i++
		}
	})
}
