// ABOUTME: Tests for the typed event bus: delivery order, unsubscribe, concurrency
// ABOUTME: Uses int events for simple assertion of received values

package eventbus

import (
	"sync"
	"testing"
)

func TestBus_PublishDeliversToAll(t *testing.T) {
	t.Parallel()

	bus := New[int]()
	var got1, got2 []int
	bus.Subscribe(func(v int) { got1 = append(got1, v) })
	bus.Subscribe(func(v int) { got2 = append(got2, v) })

	bus.Publish(1)
	bus.Publish(2)

	for i, got := range [][]int{got1, got2} {
		if len(got) != 2 || got[0] != 1 || got[1] != 2 {
			t.Errorf("subscriber %d got %v, want [1 2]", i+1, got)
		}
	}
}

func TestBus_SubscriptionOrder(t *testing.T) {
	t.Parallel()

	bus := New[string]()
	var order []string
	bus.Subscribe(func(string) { order = append(order, "first") })
	bus.Subscribe(func(string) { order = append(order, "second") })
	bus.Subscribe(func(string) { order = append(order, "third") })

	bus.Publish("x")

	want := []string{"first", "second", "third"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("delivery order = %v, want %v", order, want)
		}
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	t.Parallel()

	bus := New[int]()
	count := 0
	unsub := bus.Subscribe(func(int) { count++ })

	bus.Publish(1)
	unsub()
	bus.Publish(2)

	if count != 1 {
		t.Errorf("handler called %d times, want 1", count)
	}
	if bus.Count() != 0 {
		t.Errorf("Count() = %d, want 0", bus.Count())
	}
}

func TestBus_ConcurrentPublish(t *testing.T) {
	t.Parallel()

	bus := New[int]()
	var mu sync.Mutex
	total := 0
	bus.Subscribe(func(v int) {
		mu.Lock()
		total += v
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(1)
		}()
	}
	wg.Wait()

	if total != 50 {
		t.Errorf("total = %d, want 50", total)
	}
}
