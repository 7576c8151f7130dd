package pipeline

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonitor_Counters(t *testing.T) {
	m := NewMonitor()

	m.RecordQuery()
	m.RecordQuery()
	m.RecordDirect()
	m.RecordAugmented()
	m.RecordGeneration()
	m.RecordError()

	snap := m.GetSnapshot()
	assert.Equal(t, int64(2), snap.TotalQueries)
	assert.Equal(t, int64(1), snap.DirectQueries)
	assert.Equal(t, int64(1), snap.AugmentedQueries)
	assert.Equal(t, int64(1), snap.GenerationCalls)
	assert.Equal(t, int64(1), snap.Errors)
}

func TestMonitor_AverageClassificationTime(t *testing.T) {
	m := NewMonitor()

	m.RecordClassification(2 * time.Millisecond)
	m.RecordClassification(4 * time.Millisecond)

	snap := m.GetSnapshot()
	assert.Equal(t, int64(2), snap.ClassificationCalls)
	assert.InDelta(t, 3.0, snap.AverageClassificationTimeMs, 0.001)
}

func TestMonitor_ResponseTimeAveragedOverQueries(t *testing.T) {
	m := NewMonitor()

	m.RecordQuery()
	m.RecordResponseTime(10 * time.Millisecond)
	m.RecordQuery()
	m.RecordResponseTime(20 * time.Millisecond)

	snap := m.GetSnapshot()
	assert.InDelta(t, 15.0, snap.AverageResponseTimeMs, 0.001)
	assert.InDelta(t, 30.0, snap.TotalProcessingTimeMs, 0.001)
}

func TestMonitor_Reset(t *testing.T) {
	m := NewMonitor()

	m.RecordQuery()
	m.RecordGeneration()
	m.RecordClassification(5 * time.Millisecond)
	m.Reset()

	assert.Equal(t, Snapshot{}, m.GetSnapshot())
}

func TestMonitor_SnapshotIsACopy(t *testing.T) {
	m := NewMonitor()
	m.RecordQuery()

	snap := m.GetSnapshot()
	snap.TotalQueries = 99

	assert.Equal(t, int64(1), m.GetSnapshot().TotalQueries)
}

func TestMonitor_ConcurrentUse(t *testing.T) {
	m := NewMonitor()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordQuery()
			m.RecordGeneration()
			m.RecordResponseTime(time.Millisecond)
			m.GetSnapshot()
		}()
	}
	wg.Wait()

	snap := m.GetSnapshot()
	assert.Equal(t, int64(50), snap.TotalQueries)
	assert.Equal(t, int64(50), snap.GenerationCalls)
}
