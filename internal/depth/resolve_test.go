package depth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/model-inputs-cli/internal/model"
	"github.com/sells-group/model-inputs-cli/internal/tuning"
)

func entry(team string, pos model.Position, player string, rank int, src model.Provider, mtime int64) model.CanonicalDepthEntry {
	return model.CanonicalDepthEntry{
		TeamID:     team,
		TeamName:   team,
		PlayerName: player,
		PlayerKey:  player,
		Position:   pos,
		PosRank:    rank,
		Status:     model.StatusHealthy,
		Provenance: model.Provenance{Source: src, ModTime: time.Unix(mtime, 0)},
	}
}

func newTestResolver() *Resolver {
	return NewResolver(tuning.Default().Precedence)
}

func TestResolve_PrecedenceBeatsRecency(t *testing.T) {
	in := []model.CanonicalDepthEntry{
		entry("alabama", model.PositionRB, "A", 1, model.ProviderTeamSites, 100),
		entry("alabama", model.PositionRB, "A", 2, model.ProviderOurlads, 500),
	}

	res := newTestResolver().Resolve(in)
	require.Len(t, res.Winners, 1)

	got := res.Entries()[0]
	assert.Equal(t, 1, got.PosRank)
	assert.Equal(t, model.ProviderTeamSites, got.Source)
	assert.Equal(t, 1, res.Conflicts)
}

func TestResolve_PrecedenceBeatsRecency_ReversedInput(t *testing.T) {
	in := []model.CanonicalDepthEntry{
		entry("alabama", model.PositionRB, "A", 2, model.ProviderOurlads, 500),
		entry("alabama", model.PositionRB, "A", 1, model.ProviderTeamSites, 100),
	}

	got := newTestResolver().Resolve(in).Entries()[0]
	assert.Equal(t, 1, got.PosRank)
	assert.Equal(t, model.ProviderTeamSites, got.Source)
}

func TestResolve_RecencyBreaksPrecedenceTie(t *testing.T) {
	in := []model.CanonicalDepthEntry{
		entry("georgia", model.PositionWR, "B", 3, model.ProviderOurlads, 900),
		entry("georgia", model.PositionWR, "B", 1, model.ProviderOurlads, 100),
	}

	got := newTestResolver().Resolve(in).Entries()[0]
	assert.Equal(t, 3, got.PosRank)
	assert.Equal(t, time.Unix(900, 0), got.ModTime)
}

func TestResolve_UnknownProviderLosesToKnown(t *testing.T) {
	in := []model.CanonicalDepthEntry{
		entry("georgia", model.PositionTE, "C", 4, model.Provider("rivals"), 999),
		entry("georgia", model.PositionTE, "C", 2, model.Provider247, 1),
	}

	got := newTestResolver().Resolve(in).Entries()[0]
	assert.Equal(t, model.Provider247, got.Source)
}

func TestResolve_DistinctKeysKept(t *testing.T) {
	in := []model.CanonicalDepthEntry{
		entry("alabama", model.PositionRB, "A", 1, model.ProviderTeamSites, 1),
		entry("alabama", model.PositionWR, "A", 1, model.ProviderTeamSites, 1),
		entry("georgia", model.PositionRB, "A", 1, model.ProviderTeamSites, 1),
	}

	res := newTestResolver().Resolve(in)
	assert.Len(t, res.Winners, 3)
	assert.Zero(t, res.Conflicts)
}

func sampleEntries() []model.CanonicalDepthEntry {
	return []model.CanonicalDepthEntry{
		entry("alabama", model.PositionRB, "A", 1, model.ProviderTeamSites, 100),
		entry("alabama", model.PositionRB, "A", 2, model.ProviderOurlads, 500),
		entry("alabama", model.PositionRB, "B", 2, model.Provider247, 300),
		entry("alabama", model.PositionRB, "B", 3, model.Provider247, 400),
		entry("alabama", model.PositionQB, "Q", 1, model.ProviderOurlads, 10),
		entry("alabama", model.PositionQB, "Q", 1, model.Provider247, 20),
		entry("georgia", model.PositionWR, "W", 5, model.Provider247, 50),
		entry("georgia", model.PositionWR, "W", 4, model.Provider247, 50),
	}
}

func TestResolve_OrderIndependent(t *testing.T) {
	base := sampleEntries()
	want := newTestResolver().Resolve(base).Winners

	// Every rotation and the full reversal produce the same winners.
	for shift := range base {
		rotated := append(append([]model.CanonicalDepthEntry{}, base[shift:]...), base[:shift]...)
		assert.Equal(t, want, newTestResolver().Resolve(rotated).Winners, "rotation %d", shift)
	}

	reversed := make([]model.CanonicalDepthEntry, len(base))
	for i, e := range base {
		reversed[len(base)-1-i] = e
	}
	assert.Equal(t, want, newTestResolver().Resolve(reversed).Winners)
}

func TestResolve_Idempotent(t *testing.T) {
	r := newTestResolver()
	once := r.Resolve(sampleEntries())
	twice := r.Resolve(once.Entries())

	assert.Equal(t, once.Winners, twice.Winners)
	assert.Equal(t, once.Order, twice.Order)
	assert.Zero(t, twice.Conflicts)
}

func TestResolve_SameProviderSameMtimeIsDeterministic(t *testing.T) {
	got := newTestResolver().Resolve(sampleEntries())
	w := got.Winners[model.DepthKey{TeamID: "georgia", Position: model.PositionWR, PlayerKey: "W"}]
	assert.Equal(t, 4, w.PosRank)
}

func TestResolve_EqualPrecedenceSameMtimeDifferentSource(t *testing.T) {
	r := NewResolver(map[model.Provider]int{
		model.ProviderTeamSites: 1,
		model.ProviderOurlads:   1,
	})
	a := entry("georgia", model.PositionQB, "Q", 1, model.ProviderTeamSites, 100)
	b := entry("georgia", model.PositionQB, "Q", 1, model.ProviderOurlads, 100)
	key := a.Key()

	forward := r.Resolve([]model.CanonicalDepthEntry{a, b}).Winners[key]
	backward := r.Resolve([]model.CanonicalDepthEntry{b, a}).Winners[key]
	assert.Equal(t, forward, backward)
	assert.Equal(t, model.ProviderOurlads, forward.Source)
}

func TestResolve_Empty(t *testing.T) {
	res := newTestResolver().Resolve(nil)
	assert.Empty(t, res.Winners)
	assert.Empty(t, res.Entries())
}
