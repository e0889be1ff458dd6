package analytics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackAndQueryEvent(t *testing.T) {
	a := New()
	a.TrackEvent("master", 1)
	a.TrackEvent("master", 1)
	a.TrackEvent("master", -1)

	assert.Equal(t, 1, a.QueryEvent("master"))
	assert.Equal(t, 0, a.QueryEvent("never-tracked"))
}

func TestQueryEvents(t *testing.T) {
	a := New()
	a.TrackEvent("master_total", 3)
	a.TrackEvent("client_total", 5)

	got := a.QueryEvents("master_total", "client_total", "missing")
	assert.Equal(t, map[string]int{"master_total": 3, "client_total": 5, "missing": 0}, got)
}

func TestQueryEventLabelsFilter(t *testing.T) {
	a := New()
	a.TrackEvent("master", 1)
	a.TrackEvent("master_total", 1)
	a.TrackEvent("client", 1)

	labels, err := a.QueryEventLabels("^master")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"master", "master_total"}, labels)
}

func TestQueryEventLabelsEmptyFilterReturnsAll(t *testing.T) {
	a := New()
	a.TrackEvent("master", 1)
	a.TrackEvent("client", 1)

	labels, err := a.QueryEventLabels("")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"master", "client"}, labels)
}

func TestQueryEventLabelsInvalidRegex(t *testing.T) {
	a := New()
	_, err := a.QueryEventLabels("(")
	assert.Error(t, err)
}

func TestTrackEventConcurrentSafe(t *testing.T) {
	a := New()
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.TrackEvent("client_total", 1)
		}()
	}
	wg.Wait()
	assert.Equal(t, 200, a.QueryEvent("client_total"))
}
