package associator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uofuseismo/urts-core/pick"
)

func TestTravelTimeAppliesStaticCorrection(t *testing.T) {
	m, err := NewVelocityModel(6.0, 3.5)
	require.NoError(t, err)

	base := m.TravelTime("UU", "TCU", pick.PhaseP, 60, 40.0, -112.0)
	m.SetStaticCorrection("UU", "TCU", 250*time.Millisecond)
	corrected := m.TravelTime("UU", "TCU", pick.PhaseP, 60, 40.0, -112.0)

	assert.Equal(t, base+250*time.Millisecond, corrected)
}

func TestTravelTimeSourceSpecificCorrectionTakesPrecedenceOverStatic(t *testing.T) {
	m, err := NewVelocityModel(6.0, 3.5)
	require.NoError(t, err)
	m.SetStaticCorrection("UU", "TCU", 250*time.Millisecond)
	m.SetSourceSpecificCorrection("UU", "TCU", 40.0, -112.0, 900*time.Millisecond)

	base := time.Duration(60 / 6.0 * float64(time.Second))
	near := m.TravelTime("UU", "TCU", pick.PhaseP, 60, 40.01, -112.02)
	assert.Equal(t, base+900*time.Millisecond, near)

	far := m.TravelTime("UU", "TCU", pick.PhaseP, 60, 45.0, -110.0)
	assert.Equal(t, base+250*time.Millisecond, far)
}

func TestLoadStaticCorrectionsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "statics.csv")
	require.NoError(t, os.WriteFile(path, []byte("UU,TCU,0.25\nUU,SRU,-0.10\n"), 0o644))

	m, err := NewVelocityModel(6.0, 3.5)
	require.NoError(t, err)
	require.NoError(t, m.LoadStaticCorrections(path))

	tcu := m.TravelTime("UU", "TCU", pick.PhaseP, 60, 40.0, -112.0)
	base := time.Duration(60 / 6.0 * float64(time.Second))
	assert.Equal(t, base+250*time.Millisecond, tcu)

	sru := m.TravelTime("UU", "SRU", pick.PhaseP, 60, 40.0, -112.0)
	assert.Equal(t, base-100*time.Millisecond, sru)
}

func TestLoadStaticCorrectionsRejectsMissingFile(t *testing.T) {
	m, err := NewVelocityModel(6.0, 3.5)
	require.NoError(t, err)
	assert.Error(t, m.LoadStaticCorrections(filepath.Join(t.TempDir(), "missing.csv")))
}

func TestLoadSourceSpecificCorrectionsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sssc.csv")
	require.NoError(t, os.WriteFile(path, []byte("UU,TCU,40.0,-112.0,0.9\n"), 0o644))

	m, err := NewVelocityModel(6.0, 3.5)
	require.NoError(t, err)
	require.NoError(t, m.LoadSourceSpecificCorrections(path))

	base := time.Duration(60 / 6.0 * float64(time.Second))
	got := m.TravelTime("UU", "TCU", pick.PhaseP, 60, 40.02, -111.98)
	assert.Equal(t, base+900*time.Millisecond, got)
}
