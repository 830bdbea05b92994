package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSharderRejectsEmptyWorkerSet(t *testing.T) {
	_, err := NewSharder(nil)
	assert.Error(t, err)
}

func TestSharderIsStableForSameFlow(t *testing.T) {
	s, err := NewSharder([]string{"w0", "w1", "w2"})
	require.NoError(t, err)

	flow := "10.0.0.1:1234-10.0.0.2:80"
	first, err := s.WorkerFor(flow)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := s.WorkerFor(flow)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSharderDistributesAcrossWorkers(t *testing.T) {
	s, err := NewSharder([]string{"w0", "w1", "w2"})
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		flow := "flow-" + string(rune('a'+i%26)) + string(rune('0'+i%10))
		worker, err := s.WorkerFor(flow)
		require.NoError(t, err)
		seen[worker] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestSharderAddAndRemoveWorker(t *testing.T) {
	s, err := NewSharder([]string{"w0"})
	require.NoError(t, err)

	s.AddWorker("w1")
	flow := "some-flow-key"
	worker, err := s.WorkerFor(flow)
	require.NoError(t, err)
	assert.Contains(t, []string{"w0", "w1"}, worker)

	s.RemoveWorker("w0")
	s.RemoveWorker("w1")
	_, err = s.WorkerFor(flow)
	assert.Error(t, err)
}
