package runcontrol_test

import (
	"testing"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dqm4hep/dqm4hep-go/internal/run"
	"github.com/dqm4hep/dqm4hep-go/internal/runcontrol"
	"github.com/dqm4hep/dqm4hep-go/internal/status"
)

func TestNewIsIdleWithDefaultName(t *testing.T) {
	rc := runcontrol.New()
	assert.Equal(t, runcontrol.DefaultName, rc.Name())
	assert.False(t, rc.IsRunning())
	assert.Nil(t, rc.CurrentRun())
}

func TestStartNewRunFromIdleEmitsSOR(t *testing.T) {
	defer leaktest.Check(t)()
	rc := runcontrol.New()

	sorCh := make(chan uint32, 1)
	rc.SOR().Connect(t, func(r *run.Run) { sorCh <- r.Number })

	require.NoError(t, rc.StartNewRun(run.New(42), ""))
	assert.True(t, rc.IsRunning())
	assert.Equal(t, uint32(42), rc.CurrentRun().Number)
	assert.Equal(t, uint32(42), <-sorCh)
}

func TestStartNewRunWhileRunningEmitsEORThenSOR(t *testing.T) {
	defer leaktest.Check(t)()
	rc := runcontrol.New()
	require.NoError(t, rc.StartNewRun(run.New(42), ""))

	var events []string
	done := make(chan struct{}, 2)
	rc.EOR().Connect(t, func(r *run.Run) {
		events = append(events, "EOR")
		done <- struct{}{}
	})
	rc.SOR().Connect(t, func(r *run.Run) {
		events = append(events, "SOR")
		done <- struct{}{}
	})

	require.NoError(t, rc.StartNewRun(run.New(43), ""))
	<-done
	<-done
	assert.Equal(t, []string{"EOR", "SOR"}, events)
	assert.Equal(t, uint32(43), rc.CurrentRun().Number)
}

func TestEndCurrentRunMergesParametersAndEmitsEOR(t *testing.T) {
	defer leaktest.Check(t)()
	rc := runcontrol.New()
	require.NoError(t, rc.StartNewRun(run.New(1), ""))

	eorCh := make(chan *run.Run, 1)
	rc.EOR().Connect(t, func(r *run.Run) { eorCh <- r })

	require.NoError(t, rc.EndCurrentRun(map[string]string{"comment": "ok"}, ""))
	assert.False(t, rc.IsRunning())

	ended := <-eorCh
	assert.Equal(t, "ok", ended.Parameters["comment"])
	assert.True(t, ended.IsFrozen())
}

func TestEndCurrentRunWhileIdleIsUnchangedAndEmitsNoSignal(t *testing.T) {
	rc := runcontrol.New()
	var emitted bool
	rc.EOR().Connect(t, func(*run.Run) { emitted = true })

	err := rc.EndCurrentRun(nil, "")
	assert.ErrorIs(t, err, status.Unchanged)
	assert.False(t, emitted)
}

func TestPasswordMismatchIsNotAllowedAndSuppressesEffects(t *testing.T) {
	rc := runcontrol.New()
	require.NoError(t, rc.SetPassword("secret"))

	err := rc.StartNewRun(run.New(1), "wrong")
	assert.ErrorIs(t, err, status.NotAllowed)
	assert.False(t, rc.IsRunning())
}

func TestSetPasswordRejectedWhileRunning(t *testing.T) {
	rc := runcontrol.New()
	require.NoError(t, rc.StartNewRun(run.New(1), ""))
	err := rc.SetPassword("secret")
	assert.ErrorIs(t, err, status.NotAllowed)
}

func TestSetNameIsCosmeticOnly(t *testing.T) {
	rc := runcontrol.New()
	rc.SetName("EastArm")
	assert.Equal(t, "EastArm", rc.Name())
}
