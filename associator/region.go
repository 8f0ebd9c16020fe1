package associator

import "github.com/pkg/errors"

// RegionOptions bounds an associator's clustering, search space, and
// search effort. The package ships Utah and Yellowstone (YNP) presets;
// other regions can be constructed directly.
type RegionOptions struct {
	Name string

	// DBSCAN parameters.
	Epsilon        float64 // seconds, tolerance in reduced origin-time space
	MinClusterSize int

	// Particle-swarm search space and effort.
	MinLatitude, MaxLatitude   float64
	MinLongitude, MaxLongitude float64
	MinDepthMeters, MaxDepthMeters float64
	ParticleCount int
	EpochCount    int

	// MaxDistanceToAssociateKM discards picks whose epicentral distance
	// to their assigned origin exceeds this bound.
	MaxDistanceToAssociateKM float64

	// ResidualPNorm is the Lp-norm exponent used when summarizing
	// per-pick travel-time residuals into a single objective value.
	ResidualPNorm float64
}

// Validate checks that the region's parameters describe a usable search.
func (r RegionOptions) Validate() error {
	if r.Epsilon <= 0 {
		return errors.New("epsilon must be positive")
	}
	if r.MinClusterSize < 1 {
		return errors.New("minimum cluster size must be at least 1")
	}
	if r.MinLatitude >= r.MaxLatitude {
		return errors.New("latitude bounds invalid")
	}
	if r.MinDepthMeters >= r.MaxDepthMeters {
		return errors.New("depth bounds invalid")
	}
	if r.ParticleCount < 1 || r.EpochCount < 1 {
		return errors.New("particle and epoch counts must be positive")
	}
	if r.MaxDistanceToAssociateKM <= 0 {
		return errors.New("maximum distance to associate must be positive")
	}
	if r.ResidualPNorm <= 0 {
		return errors.New("residual p-norm must be positive")
	}
	return nil
}

// UtahRegion is the default search configuration for the Utah network.
func UtahRegion() RegionOptions {
	return RegionOptions{
		Name:                     "Utah",
		Epsilon:                  0.25,
		MinClusterSize:           7,
		MinLatitude:              36.0,
		MaxLatitude:              43.0,
		MinLongitude:             -114.5,
		MaxLongitude:             -108.5,
		MinDepthMeters:           -1700,
		MaxDepthMeters:           22000,
		ParticleCount:            60,
		EpochCount:               20,
		MaxDistanceToAssociateKM: 150,
		ResidualPNorm:            2,
	}
}

// YNPRegion is the default search configuration for the Yellowstone
// network.
func YNPRegion() RegionOptions {
	return RegionOptions{
		Name:                     "YNP",
		Epsilon:                  0.2,
		MinClusterSize:           7,
		MinLatitude:              44.0,
		MaxLatitude:              45.3,
		MinLongitude:             -111.4,
		MaxLongitude:             -109.7,
		MinDepthMeters:           -1000,
		MaxDepthMeters:           16000,
		ParticleCount:            60,
		EpochCount:               20,
		MaxDistanceToAssociateKM: 150,
		ResidualPNorm:            2,
	}
}
