package associator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDBSCANFindsOneCluster(t *testing.T) {
	features := []float64{0.0, 0.05, -0.05, 0.1, 10.0, 10.1}
	labels := dbscan1D(features, 0.2, 3)

	assert.Equal(t, labels[0], labels[1])
	assert.Equal(t, labels[0], labels[2])
	assert.Equal(t, labels[0], labels[3])
	assert.NotEqual(t, noiseLabel, labels[0])

	assert.Equal(t, noiseLabel, labels[4])
	assert.Equal(t, noiseLabel, labels[5])
}

func TestDBSCANAllNoiseBelowMinPoints(t *testing.T) {
	features := []float64{0.0, 100.0, 200.0}
	labels := dbscan1D(features, 0.1, 2)
	for _, l := range labels {
		assert.Equal(t, noiseLabel, l)
	}
}

func TestClusterIndicesGroupsByLabel(t *testing.T) {
	labels := []int{0, 0, -1, 1, 1, 0}
	clusters := clusterIndices(labels)
	assert.Equal(t, [][]int{{0, 1, 5}, {3, 4}}, clusters)
}

func TestClusterIndicesAllNoiseReturnsNil(t *testing.T) {
	labels := []int{-1, -1, -1}
	assert.Nil(t, clusterIndices(labels))
}
