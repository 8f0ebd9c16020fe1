package associator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPSWarmLocateFindsKnownMinimum(t *testing.T) {
	bounds := locationBounds{
		MinLat: 39.0, MaxLat: 41.0,
		MinLon: -113.0, MaxLon: -111.0,
		MinDepth: 0, MaxDepth: 20000,
	}
	targetLat, targetLon, targetDepth := 40.2, -112.3, 8000.0

	objective := func(lat, lon, depth float64) float64 {
		return math.Pow(lat-targetLat, 2) + math.Pow(lon-targetLon, 2) + math.Pow((depth-targetDepth)/10000, 2)
	}

	rng := rand.New(rand.NewSource(7))
	lat, lon, depth, value := pswarmLocate(bounds, objective, 40, 50, rng)

	assert.InDelta(t, targetLat, lat, 0.05)
	assert.InDelta(t, targetLon, lon, 0.05)
	assert.InDelta(t, targetDepth, depth, 1000)
	assert.Less(t, value, 0.01)
}
