package loudness

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversInPublishOrder(t *testing.T) {
	h := NewHub()
	var a, b []float64
	h.Subscribe(func(s Sample) { a = append(a, s.Level) })
	h.Subscribe(func(s Sample) { b = append(b, s.Level) })

	for _, l := range []float64{0.1, 0.9, 0.5} {
		h.Publish(Sample{Level: l})
	}

	assert.Equal(t, []float64{0.1, 0.9, 0.5}, a)
	assert.Equal(t, []float64{0.1, 0.9, 0.5}, b)
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub()
	n := 0
	sub := h.Subscribe(func(Sample) { n++ })

	h.Publish(Sample{Level: 0.2})
	sub.Unsubscribe()
	sub.Unsubscribe()
	h.Publish(Sample{Level: 0.4})

	assert.Equal(t, 1, n)
	assert.Equal(t, 0, h.Len())
}

func TestHubUnsubscribeWaitsForInFlightDelivery(t *testing.T) {
	h := NewHub()
	entered := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	finished := false

	sub := h.Subscribe(func(Sample) {
		close(entered)
		<-release
		mu.Lock()
		finished = true
		mu.Unlock()
	})

	go h.Publish(Sample{Level: 1})
	<-entered

	unsubscribed := make(chan struct{})
	go func() {
		sub.Unsubscribe()
		close(unsubscribed)
	}()

	select {
	case <-unsubscribed:
		t.Fatal("Unsubscribe returned while a delivery was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-unsubscribed:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Unsubscribe")
	}

	mu.Lock()
	defer mu.Unlock()
	require.True(t, finished)
}
