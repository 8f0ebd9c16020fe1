package associator

import (
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/uofuseismo/urts-core/metrics"
	"github.com/uofuseismo/urts-core/origin"
	"github.com/uofuseismo/urts-core/pick"
	"github.com/uofuseismo/urts-core/urtslog"
)

// Associator is a stateless worker that clusters unassociated picks into
// candidate origins and locates each cluster via particle-swarm
// optimization over travel-time residuals.
type Associator struct {
	Region   RegionOptions
	Stations map[string]StationLocation // keyed by "Network.Station"
	Model    *VelocityModel

	Logger urtslog.Logger

	// Source is used to seed the particle-swarm search; tests supply a
	// deterministic source. New sets it to a source with the fixed seed 1.
	Source rand.Source

	// Metrics, if set, has its association counter and latency histogram
	// updated once per call to Associate.
	Metrics *metrics.Metrics
}

// New constructs an Associator. region, stations, and model must all be
// valid; model is consulted for both the DBSCAN time-reduction pass and
// the PSO residual objective.
func New(region RegionOptions, stations map[string]StationLocation, model *VelocityModel) (*Associator, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}
	if len(stations) == 0 {
		return nil, errors.New("at least one station is required")
	}
	if model == nil {
		return nil, errors.New("velocity model required")
	}
	return &Associator{
		Region:   region,
		Stations: stations,
		Model:    model,
		Logger:   urtslog.NoOp,
		Source:   rand.NewSource(1),
	}, nil
}

func stationKeyFor(network, station string) string { return network + "." + station }

// Associate runs the full cluster-then-locate pipeline over req.
func (a *Associator) Associate(req Request) (resp Response) {
	start := time.Now()
	defer func() {
		if a.Metrics == nil {
			return
		}
		a.Metrics.AssociationsTotal.WithLabelValues(resp.ReturnCode.String()).Inc()
		a.Metrics.ObserveAssociationLatency(time.Since(start))
	}()

	if err := req.Validate(); err != nil {
		return Response{Identifier: req.Identifier, ReturnCode: InvalidRequest}
	}

	// Every pick needs a known station location to be used at all.
	usable := make([]CandidatePick, 0, len(req.Picks))
	unassociated := make([]CandidatePick, 0)
	for _, p := range req.Picks {
		if _, ok := a.Stations[stationKeyFor(p.ChannelID.Network, p.ChannelID.Station)]; ok {
			usable = append(usable, p)
		} else {
			unassociated = append(unassociated, p)
		}
	}
	if len(usable) == 0 {
		return Response{Identifier: req.Identifier, ReturnCode: Success, Unassociated: unassociated}
	}

	referenceLat, referenceLon := a.stationCentroid(usable)
	reducedTimes := make([]float64, len(usable))
	for i, p := range usable {
		reducedTimes[i] = a.reducedOriginTimeSeconds(p, referenceLat, referenceLon)
	}

	labels := dbscan1D(reducedTimes, a.Region.Epsilon, a.Region.MinClusterSize)
	clusters := clusterIndices(labels)

	rng := rand.New(a.Source)
	var origins []*origin.Origin
	for _, idxs := range clusters {
		if len(idxs) < a.Region.MinClusterSize {
			for _, idx := range idxs {
				unassociated = append(unassociated, usable[idx])
			}
			continue
		}
		clusterPicks := make([]CandidatePick, len(idxs))
		for i, idx := range idxs {
			clusterPicks[i] = usable[idx]
		}

		o, rejected, err := a.locate(clusterPicks, rng)
		if err != nil {
			a.Logger.Warnf("failed to locate cluster: %v", err)
			unassociated = append(unassociated, clusterPicks...)
			continue
		}
		origins = append(origins, o)
		unassociated = append(unassociated, rejected...)
	}
	for i, l := range labels {
		if l == noiseLabel {
			unassociated = append(unassociated, usable[i])
		}
	}

	return Response{Identifier: req.Identifier, ReturnCode: Success, Origins: origins, Unassociated: unassociated}
}

func (a *Associator) stationCentroid(picks []CandidatePick) (float64, float64) {
	var sumLat, sumLon float64
	for _, p := range picks {
		loc := a.Stations[stationKeyFor(p.ChannelID.Network, p.ChannelID.Station)]
		sumLat += loc.Latitude
		sumLon += loc.Longitude
	}
	n := float64(len(picks))
	return sumLat / n, sumLon / n
}

// reducedOriginTimeSeconds estimates a pick's origin time by subtracting
// the station-to-reference-point travel time, giving DBSCAN a 1-D feature
// in which picks from the same event cluster tightly.
func (a *Associator) reducedOriginTimeSeconds(p CandidatePick, referenceLat, referenceLon float64) float64 {
	loc := a.Stations[stationKeyFor(p.ChannelID.Network, p.ChannelID.Station)]
	distanceKM := epicentralDistanceKM(loc.Latitude, loc.Longitude, referenceLat, referenceLon)
	tt := a.Model.TravelTime(p.ChannelID.Network, p.ChannelID.Station, p.PhaseHint, distanceKM, referenceLat, referenceLon)
	return float64(p.Time.UnixNano())/1e9 - tt.Seconds()
}

// locate runs the particle-swarm search for a single cluster and builds
// its Origin, filtering out arrivals whose epicentral distance exceeds
// the region's association limit.
func (a *Associator) locate(picks []CandidatePick, rng *rand.Rand) (*origin.Origin, []CandidatePick, error) {
	bounds := locationBounds{
		MinLat: a.Region.MinLatitude, MaxLat: a.Region.MaxLatitude,
		MinLon: a.Region.MinLongitude, MaxLon: a.Region.MaxLongitude,
		MinDepth: a.Region.MinDepthMeters, MaxDepth: a.Region.MaxDepthMeters,
	}

	objective := func(lat, lon, depth float64) float64 {
		_, residuals := a.predictedOriginTimeAndResiduals(picks, lat, lon, depth)
		var sum float64
		for _, r := range residuals {
			sum += math.Pow(math.Abs(r), a.Region.ResidualPNorm)
		}
		return sum
	}

	lat, lon, depth, _ := pswarmLocate(bounds, objective, a.Region.ParticleCount, a.Region.EpochCount, rng)
	originTime, residuals := a.predictedOriginTimeAndResiduals(picks, lat, lon, depth)

	o := origin.New()
	o.SetTime(time.Unix(0, int64(originTime*1e9)).UTC())
	if err := o.SetLatitude(lat); err != nil {
		return nil, nil, err
	}
	o.SetLongitude(lon)
	if err := o.SetDepth(depth); err != nil {
		return nil, nil, err
	}
	o.SetAlgorithms([]string{"dbscan+pso"})

	var arrivals []origin.Arrival
	var rejected []CandidatePick
	for i, p := range picks {
		loc := a.Stations[stationKeyFor(p.ChannelID.Network, p.ChannelID.Station)]
		distanceKM := hypocentralDistanceKM(loc, lat, lon, depth)
		if epicentralDistanceKM(loc.Latitude, loc.Longitude, lat, lon) > a.Region.MaxDistanceToAssociateKM {
			rejected = append(rejected, p)
			continue
		}
		tt := a.Model.TravelTime(p.ChannelID.Network, p.ChannelID.Station, p.PhaseHint, distanceKM, lat, lon)
		residual := time.Duration(residuals[i] * float64(time.Second))
		arrivals = append(arrivals, origin.Arrival{
			Pick: pick.Pick{
				ChannelID:  p.ChannelID,
				Time:       p.Time,
				Identifier: p.Identifier,
			},
			Phase:      p.PhaseHint,
			TravelTime: &tt,
			Residual:   &residual,
		})
	}
	o.SetArrivals(arrivals)

	if err := o.Validate(); err != nil {
		return nil, nil, err
	}
	return o, rejected, nil
}

// predictedOriginTimeAndResiduals computes, for a candidate hypocenter,
// each pick's implied origin time and takes the mean as the event origin
// time; residuals are each pick's deviation from that mean, in seconds.
func (a *Associator) predictedOriginTimeAndResiduals(picks []CandidatePick, lat, lon, depth float64) (float64, []float64) {
	implied := make([]float64, len(picks))
	var sum float64
	for i, p := range picks {
		loc := a.Stations[stationKeyFor(p.ChannelID.Network, p.ChannelID.Station)]
		distanceKM := hypocentralDistanceKM(loc, lat, lon, depth)
		tt := a.Model.TravelTime(p.ChannelID.Network, p.ChannelID.Station, p.PhaseHint, distanceKM, lat, lon)
		implied[i] = float64(p.Time.UnixNano())/1e9 - tt.Seconds()
		sum += implied[i]
	}
	mean := sum / float64(len(picks))
	residuals := make([]float64, len(picks))
	for i, v := range implied {
		residuals[i] = v - mean
	}
	return mean, residuals
}
