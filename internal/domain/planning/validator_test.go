package planning_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/planning"
	"github.com/harborops/quayplan/internal/domain/resource"
	"github.com/harborops/quayplan/internal/domain/schedule"
	"github.com/harborops/quayplan/internal/domain/tide"
	"github.com/harborops/quayplan/internal/domain/vessel"
)

// crewedEnv returns an environment with the baseline pilot and tug every
// call needs, so the resource layer passes unless a test removes them
func crewedEnv() planning.Env {
	pull := 60.0
	return planning.Env{
		AvailablePilots: []*resource.Resource{{ID: 1, Kind: resource.KindPilot, Name: "P1", IsAvailable: true}},
		AvailableTugs:   []*resource.Resource{{ID: 2, Kind: resource.KindTug, Name: "T1", BollardPull: &pull, IsAvailable: true}},
	}
}

func newValidator() *planning.Validator {
	return planning.NewValidator(planning.DefaultUKC(), planning.DefaultWeatherLimits())
}

func testVessel(t *testing.T, loa, beam, draft float64) *vessel.Vessel {
	t.Helper()
	v, err := vessel.NewVessel("EVER TEST", vessel.TypeContainer, loa, beam, draft, "CONTAINER", vessel.PriorityFCFS)
	require.NoError(t, err)
	return v
}

func testBerth(t *testing.T, length, maxDraft float64) *berth.Berth {
	t.Helper()
	b, err := berth.NewBerth(1, "Alpha 1", "A1", length, maxDraft, "CONTAINER")
	require.NoError(t, err)
	return b
}

func ruleSet(result planning.Result) map[string]bool {
	rules := make(map[string]bool)
	for _, v := range result.Violations {
		rules[v.Rule] = true
	}
	return rules
}

func TestValidate_OversizedVesselDisqualified(t *testing.T) {
	// Berth A1 length=350 maxDraft=13; vessel LOA=366 draft=11
	val := newValidator()
	ves := testVessel(t, 366, 51, 11)
	b := testBerth(t, 350, 13)

	result := val.Validate(ves, b, planning.Env{}, planning.ModeFull)

	assert.False(t, result.HardPassed)
	hard := result.FirstHard()
	require.NotNil(t, hard)
	assert.Equal(t, "V-DIM-001", hard.Rule)
	assert.Equal(t, planning.SeverityCritical, hard.Severity)
}

func TestValidate_LOAEqualToMaxIsAccepted(t *testing.T) {
	val := newValidator()
	b := testBerth(t, 350, 13)

	atLimit := val.Validate(testVessel(t, 350, 51, 11), b, crewedEnv(), planning.ModeFull)
	assert.True(t, atLimit.HardPassed, "LOA == maxLOA must pass")

	overLimit := val.Validate(testVessel(t, 350.1, 51, 11), b, crewedEnv(), planning.ModeFull)
	assert.False(t, overLimit.HardPassed)
}

func TestValidate_FastRejectStopsAtFirstCritical(t *testing.T) {
	val := newValidator()
	// Fails on LOA, draft, and cargo; fast-reject must stop at the first
	ves := testVessel(t, 400, 60, 18)
	ves.CargoType = "LNG"
	b := testBerth(t, 300, 12)
	b.CargoTypesAllowed = []string{"CONTAINER"}

	result := val.Validate(ves, b, planning.Env{}, planning.ModeFastReject)

	require.Len(t, result.Violations, 1)
	assert.Equal(t, "V-DIM-001", result.Violations[0].Rule)
}

func TestValidate_HazmatNeedsCertifiedBerth(t *testing.T) {
	val := newValidator()
	ves := testVessel(t, 200, 32, 10)
	hazmat := "2.1"
	ves.HazmatClass = &hazmat
	b := testBerth(t, 350, 13)

	result := val.Validate(ves, b, planning.Env{}, planning.ModeFull)
	assert.Contains(t, ruleSet(result), "C-CGO-002")

	b.DGCertified = true
	result = val.Validate(ves, b, planning.Env{}, planning.ModeFull)
	assert.NotContains(t, ruleSet(result), "C-CGO-002")
}

func TestValidate_OccupiedWindowBlocks(t *testing.T) {
	val := newValidator()
	ves := testVessel(t, 200, 32, 10)
	b := testBerth(t, 350, 13)
	eta := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	occupier, err := schedule.NewSchedule(2, 1, eta, eta.Add(4*time.Hour), 50)
	require.NoError(t, err)

	env := crewedEnv()
	env.Window = planning.Window{From: eta, To: eta.Add(4 * time.Hour)}
	env.OverlappingSchedules = []*schedule.Schedule{occupier}
	result := val.Validate(ves, b, env, planning.ModeFull)

	assert.Contains(t, ruleSet(result), "B-AVL-001")
	assert.False(t, result.HardPassed)
}

func TestValidate_TideExactlyAtRequiredDepthAccepted(t *testing.T) {
	val := newValidator()
	ves := testVessel(t, 200, 32, 17.5)
	gt := 90000.0
	ves.GrossTonnage = &gt // default UKC tier, 1.5m
	b := testBerth(t, 350, 18)
	b.ChartedDepth = 16.0

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	env := crewedEnv()
	env.Window = planning.Window{From: at, To: at.Add(4 * time.Hour)}

	// draft 17.5 + ukc 1.5 = 19.0; charted 16.0 needs tide >= 3.0
	env.TideReadings = []*tide.Reading{{PortID: 1, TideTime: at, Type: tide.ReadingHigh, HeightMeters: 3.0}}
	result := val.Validate(ves, b, env, planning.ModeFull)
	assert.True(t, result.HardPassed, "tide exactly at draft+ukc must pass")

	env.TideReadings = []*tide.Reading{{PortID: 1, TideTime: at, Type: tide.ReadingHigh, HeightMeters: 2.9}}
	result = val.Validate(ves, b, env, planning.ModeFull)
	assert.False(t, result.HardPassed)
	assert.Contains(t, ruleSet(result), "N-NAV-001")
}

func TestValidate_WindowClaimSoftOnSuggestHardOnCommit(t *testing.T) {
	val := newValidator()
	ves := testVessel(t, 200, 32, 10)
	b := testBerth(t, 350, 13)

	suggestEnv := crewedEnv()
	suggestEnv.WindowClaimCrossed = true
	suggest := val.Validate(ves, b, suggestEnv, planning.ModeFull)
	require.Contains(t, ruleSet(suggest), "P-WND-001")
	assert.True(t, suggest.HardPassed, "claim crossing is advisory at suggestion time")

	commitEnv := suggestEnv
	commitEnv.CommitCheck = true
	commit := val.Validate(ves, b, commitEnv, planning.ModeFull)
	assert.False(t, commit.HardPassed, "claim crossing blocks at commit time")
}

func TestValidate_WindowVesselMayUseOwnClaim(t *testing.T) {
	val := newValidator()
	ves := testVessel(t, 200, 32, 10)
	ves.PriorityClass = vessel.PriorityWindow
	b := testBerth(t, 350, 13)

	env := crewedEnv()
	env.WindowClaimCrossed = true
	env.CommitCheck = true
	result := val.Validate(ves, b, env, planning.ModeFull)

	assert.True(t, result.HardPassed)
	assert.NotContains(t, ruleSet(result), "P-WND-001")
}

func TestValidate_WeatherGates(t *testing.T) {
	val := newValidator()
	ves := testVessel(t, 200, 32, 10)
	b := testBerth(t, 350, 13)

	storm := crewedEnv()
	storm.Weather = &planning.Weather{WindSpeedMps: 25, VisibilityMeters: 5000}
	result := val.Validate(ves, b, storm, planning.ModeFull)
	assert.Contains(t, ruleSet(result), "W-WEA-001")
	assert.False(t, result.HardPassed)

	breezy := crewedEnv()
	breezy.Weather = &planning.Weather{WindSpeedMps: 18, VisibilityMeters: 5000}
	result = val.Validate(ves, b, breezy, planning.ModeFull)
	assert.Contains(t, ruleSet(result), "W-WEA-101")
	assert.True(t, result.HardPassed, "advisory wind is soft")
}
