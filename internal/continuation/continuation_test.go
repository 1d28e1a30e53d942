package continuation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edison-dev/edison/internal/config"
)

func TestComputeOffModeReturnsNoAction(t *testing.T) {
	p, err := Compute(Inputs{Config: config.ContinuationConfig{DefaultMode: "off"}})
	require.NoError(t, err)
	require.Equal(t, "off", p.Mode)
	require.Empty(t, p.NextAction)
}

func TestComputeSessionOverrideWinsOverDefault(t *testing.T) {
	p, err := Compute(Inputs{
		Config:          config.ContinuationConfig{DefaultMode: "off"},
		SessionOverride: "soft",
		ReadyTaskCount:  1,
	})
	require.NoError(t, err)
	require.Equal(t, "soft", p.Mode)
	require.Equal(t, "claim next ready task", p.NextAction)
}

func TestComputePlatformOverrideWinsOverSession(t *testing.T) {
	p, err := Compute(Inputs{
		Config:           config.ContinuationConfig{DefaultMode: "off"},
		SessionOverride:  "soft",
		PlatformOverride: "hard",
	})
	require.NoError(t, err)
	require.Equal(t, "hard", p.Mode)
}

func TestComputeStopsOnBlocked(t *testing.T) {
	p, err := Compute(Inputs{
		Config:       config.ContinuationConfig{DefaultMode: "hard", StopOnBlocked: true},
		BlockedCount: 1,
	})
	require.NoError(t, err)
	require.Contains(t, p.NextAction, "blocked")
}

func TestComputeIsCompleteWhenAllValidated(t *testing.T) {
	p, err := Compute(Inputs{
		Config:       config.ContinuationConfig{DefaultMode: "hard"},
		AllValidated: true,
	})
	require.NoError(t, err)
	require.True(t, p.Completion.IsComplete)
	require.Empty(t, p.NextAction)
}

func TestComputeStopsAtMaxIterations(t *testing.T) {
	p, err := Compute(Inputs{
		Config:    config.ContinuationConfig{DefaultMode: "hard", MaxIterations: 3},
		Iteration: 3,
	})
	require.NoError(t, err)
	require.Contains(t, p.NextAction, "max iterations")
}
