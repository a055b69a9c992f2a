package cluster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChooseK(t *testing.T) {
	tests := []struct {
		requested, n, want int
	}{
		{100, 0, 1},
		{100, 1, 1},
		{100, 2, 2},
		{2, 10, 2},
		{100, 10, 3},
		{100, 1000, 100},
		{2000, 1000, 32},
		{50, 1000, 50},
		{9, 10, 9},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ChooseK(tt.requested, tt.n), "requested=%d n=%d", tt.requested, tt.n)
	}
}

func blobs() [][]float32 {
	return [][]float32{
		{0, 0}, {0.1, 0}, {0, 0.1}, {0.1, 0.1},
		{10, 10}, {10.1, 10}, {10, 10.1},
		{-10, 10}, {-10.1, 10}, {-10, 10.2},
	}
}

func TestKMeansSeparatesBlobs(t *testing.T) {
	res, err := KMeans(context.Background(), blobs(), 3, Options{})
	require.NoError(t, err)
	require.Len(t, res.Labels, 10)
	require.Len(t, res.Centroids, 3)

	assert.Equal(t, res.Labels[0], res.Labels[3])
	assert.Equal(t, res.Labels[4], res.Labels[6])
	assert.Equal(t, res.Labels[7], res.Labels[9])
	assert.NotEqual(t, res.Labels[0], res.Labels[4])
	assert.NotEqual(t, res.Labels[4], res.Labels[7])
	assert.NotEqual(t, res.Labels[0], res.Labels[7])

	c := res.Centroids[res.Labels[0]]
	assert.InDelta(t, 0.05, c[0], 1e-6)
	assert.InDelta(t, 0.05, c[1], 1e-6)
	assert.Less(t, res.Inertia, 0.2)
}

func TestKMeansIsDeterministic(t *testing.T) {
	a, err := KMeans(context.Background(), blobs(), 3, Options{Seed: 7})
	require.NoError(t, err)
	b, err := KMeans(context.Background(), blobs(), 3, Options{Seed: 7})
	require.NoError(t, err)
	assert.Equal(t, a.Labels, b.Labels)
	assert.Equal(t, a.Centroids, b.Centroids)
}

func TestKMeansSingleCluster(t *testing.T) {
	res, err := KMeans(context.Background(), [][]float32{{1, 0}, {3, 0}}, 1, Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, res.Labels)
	assert.Equal(t, []float32{2, 0}, res.Centroids[0])
}

func TestKMeansIdenticalPoints(t *testing.T) {
	points := [][]float32{{1, 2}, {1, 2}, {1, 2}, {1, 2}}
	res, err := KMeans(context.Background(), points, 3, Options{})
	require.NoError(t, err)
	require.Len(t, res.Centroids, 1)
	assert.Equal(t, []int{0, 0, 0, 0}, res.Labels)
	assert.Equal(t, []float32{1, 2}, res.Centroids[0])
	assert.Zero(t, res.Inertia)
}

func TestKMeansDuplicatesLeaveNoEmptyCluster(t *testing.T) {
	points := [][]float32{{0, 0}, {0, 0}, {0, 0}, {5, 5}, {5, 5}, {9, 0}}
	res, err := KMeans(context.Background(), points, 5, Options{})
	require.NoError(t, err)
	require.Len(t, res.Centroids, 3)

	members := make([]int, len(res.Centroids))
	for _, l := range res.Labels {
		members[l]++
	}
	for c, n := range members {
		assert.Positive(t, n, "cluster %d is empty", c)
	}
	assert.Equal(t, res.Labels[0], res.Labels[2])
	assert.Equal(t, res.Labels[3], res.Labels[4])
	assert.NotEqual(t, res.Labels[0], res.Labels[5])
}

func TestKMeansRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	_, err := KMeans(ctx, nil, 1, Options{})
	assert.Error(t, err)
	_, err = KMeans(ctx, [][]float32{{1}}, 2, Options{})
	assert.Error(t, err)
	_, err = KMeans(ctx, [][]float32{{1}, {1, 2}}, 1, Options{})
	assert.Error(t, err)
}

func TestKMeansHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := KMeans(ctx, blobs(), 3, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
