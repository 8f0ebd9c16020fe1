package associator

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/uofuseismo/urts-core/pick"
)

// sourceSpecificCellDegrees is the grid cell size a source-specific
// correction is bucketed onto: a correction loaded for a given
// (station, cell) pair applies to any candidate hypocenter whose epicenter
// rounds into that same cell.
const sourceSpecificCellDegrees = 0.5

// VelocityModel is a constant-velocity half-space travel-time model,
// optionally refined by per-station static corrections and per-station,
// per-source-region source-specific corrections. Both are additive offsets
// applied after the base travel time is computed, and both may be
// pre-loaded from a correction file via LoadStaticCorrections/
// LoadSourceSpecificCorrections instead of set one at a time.
type VelocityModel struct {
	VelocityPKMPerSecond float64
	VelocitySKMPerSecond float64

	staticCorrections         map[stationKey]time.Duration
	sourceSpecificCorrections map[sourceSpecificKey]time.Duration
}

type stationKey struct {
	Network string
	Station string
}

type sourceSpecificKey struct {
	stationKey
	LatitudeCell  int
	LongitudeCell int
}

// NewVelocityModel constructs a VelocityModel from P and S velocities in
// km/s.
func NewVelocityModel(vp, vs float64) (*VelocityModel, error) {
	if vp <= 0 || vs <= 0 {
		return nil, errors.New("velocities must be positive")
	}
	return &VelocityModel{VelocityPKMPerSecond: vp, VelocitySKMPerSecond: vs}, nil
}

// SetStaticCorrection records a per-station, constant travel-time
// correction, applied on top of the base velocity model's prediction.
func (m *VelocityModel) SetStaticCorrection(network, station string, correction time.Duration) {
	if m.staticCorrections == nil {
		m.staticCorrections = make(map[stationKey]time.Duration)
	}
	m.staticCorrections[stationKey{Network: network, Station: station}] = correction
}

// SetSourceSpecificCorrection records a per-station correction that only
// applies to sources near (sourceLatitude, sourceLongitude), bucketed onto
// a sourceSpecificCellDegrees grid.
func (m *VelocityModel) SetSourceSpecificCorrection(network, station string, sourceLatitude, sourceLongitude float64, correction time.Duration) {
	if m.sourceSpecificCorrections == nil {
		m.sourceSpecificCorrections = make(map[sourceSpecificKey]time.Duration)
	}
	key := sourceSpecificKey{
		stationKey:    stationKey{Network: network, Station: station},
		LatitudeCell:  gridCell(sourceLatitude),
		LongitudeCell: gridCell(sourceLongitude),
	}
	m.sourceSpecificCorrections[key] = correction
}

func gridCell(degrees float64) int {
	return int(math.Round(degrees / sourceSpecificCellDegrees))
}

// LoadStaticCorrections reads per-station static corrections from a
// three-column CSV file (network,station,correction_seconds) and applies
// them via SetStaticCorrection. A correction file is optional; the model
// works without one, falling back to the bare velocity prediction.
func (m *VelocityModel) LoadStaticCorrections(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open static correction file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 3
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "parse static correction file")
		}
		seconds, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return errors.Wrapf(err, "invalid static correction for %s.%s", record[0], record[1])
		}
		m.SetStaticCorrection(record[0], record[1], time.Duration(seconds*float64(time.Second)))
	}
	return nil
}

// LoadSourceSpecificCorrections reads per-station, per-source-region
// corrections from a five-column CSV file
// (network,station,latitude,longitude,correction_seconds) and applies them
// via SetSourceSpecificCorrection.
func (m *VelocityModel) LoadSourceSpecificCorrections(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open source-specific correction file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 5
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "parse source-specific correction file")
		}
		latitude, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return errors.Wrapf(err, "invalid source latitude for %s.%s", record[0], record[1])
		}
		longitude, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return errors.Wrapf(err, "invalid source longitude for %s.%s", record[0], record[1])
		}
		seconds, err := strconv.ParseFloat(record[4], 64)
		if err != nil {
			return errors.Wrapf(err, "invalid source-specific correction for %s.%s", record[0], record[1])
		}
		m.SetSourceSpecificCorrection(record[0], record[1], latitude, longitude, time.Duration(seconds*float64(time.Second)))
	}
	return nil
}

// TravelTime predicts the travel time for phase over distanceKM from a
// candidate source at (sourceLatitude, sourceLongitude), plus any static
// correction registered for network/station and any source-specific
// correction registered for network/station near that source location.
// Source-specific corrections take precedence over static corrections when
// both are present, matching the original associator's residual-evaluation
// order.
func (m *VelocityModel) TravelTime(network, station string, phase pick.PhaseHint, distanceKM, sourceLatitude, sourceLongitude float64) time.Duration {
	velocity := m.VelocityPKMPerSecond
	if phase == pick.PhaseS {
		velocity = m.VelocitySKMPerSecond
	}
	base := time.Duration(distanceKM / velocity * float64(time.Second))

	key := sourceSpecificKey{
		stationKey:    stationKey{Network: network, Station: station},
		LatitudeCell:  gridCell(sourceLatitude),
		LongitudeCell: gridCell(sourceLongitude),
	}
	if correction, ok := m.sourceSpecificCorrections[key]; ok {
		return base + correction
	}
	if correction, ok := m.staticCorrections[stationKey{Network: network, Station: station}]; ok {
		return base + correction
	}
	return base
}
