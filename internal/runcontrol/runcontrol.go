// Package runcontrol implements the RunControl state machine of §4.8:
// IDLE/RUNNING transitions driven by startNewRun/endCurrentRun, gated
// by an optional password, fanning SOR/EOR edges out over
// internal/signal. §C.1 supplements the bare state machine with a
// Name (default "Global", mirroring the original RunControl's named
// instances for collocated sub-detector run controls).
package runcontrol

import (
	"sync"
	"time"

	"github.com/dqm4hep/dqm4hep-go/internal/run"
	"github.com/dqm4hep/dqm4hep-go/internal/signal"
	"github.com/dqm4hep/dqm4hep-go/internal/status"
)

// State is a RunControl state per §4.8.
type State int

const (
	// Idle is the state before SOR / after EOR.
	Idle State = iota
	// Running is the state between SOR and EOR.
	Running
)

func (s State) String() string {
	if s == Running {
		return "RUNNING"
	}
	return "IDLE"
}

// DefaultName is the run control name used when none is configured
// (§C.1).
const DefaultName = "Global"

// RunControl is the run-number state machine of §4.8.
type RunControl struct {
	mu sync.Mutex

	name     string
	password string
	state    State
	current  *run.Run

	sor *signal.Signal[*run.Run]
	eor *signal.Signal[*run.Run]
}

// New returns an IDLE RunControl named DefaultName, with no password
// set.
func New() *RunControl {
	return &RunControl{
		name:  DefaultName,
		state: Idle,
		sor:   signal.New[*run.Run](DefaultName + ".sor"),
		eor:   signal.New[*run.Run](DefaultName + ".eor"),
	}
}

// Name returns the run control's name (§C.1).
func (rc *RunControl) Name() string {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.name
}

// SetName renames the run control. Purely cosmetic: used in error
// messages, not in the SOR/EOR state machine.
func (rc *RunControl) SetName(name string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.name = name
}

// SOR returns the signal emitted on start-of-run.
func (rc *RunControl) SOR() *signal.Signal[*run.Run] { return rc.sor }

// EOR returns the signal emitted on end-of-run.
func (rc *RunControl) EOR() *signal.Signal[*run.Run] { return rc.eor }

// IsRunning reports whether the state machine is currently RUNNING.
func (rc *RunControl) IsRunning() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.state == Running
}

// State reports the current state.
func (rc *RunControl) State() State {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.state
}

// CurrentRun returns a copy of the run in progress, or nil if IDLE.
func (rc *RunControl) CurrentRun() *run.Run {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.current == nil {
		return nil
	}
	return rc.current.Clone()
}

// SetPassword sets the gating password. Rejected while RUNNING (§4.8).
func (rc *RunControl) SetPassword(password string) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.state == Running {
		return status.Wrapf(status.NotAllowed, "cannot change password while run control %q is running", rc.name)
	}
	rc.password = password
	return nil
}

func (rc *RunControl) checkPassword(password string) bool {
	return rc.password == "" || rc.password == password
}

// StartNewRun transitions IDLE→RUNNING or RUNNING→RUNNING (§4.8 table):
//   - IDLE: validates password, sets the current run, emits SOR(run).
//   - RUNNING: emits EOR(currentRun), sets the new run, emits SOR(newRun).
//
// A password mismatch returns NOT_ALLOWED and suppresses all effects.
func (rc *RunControl) StartNewRun(r *run.Run, password string) error {
	rc.mu.Lock()
	if !rc.checkPassword(password) {
		rc.mu.Unlock()
		return status.Wrapf(status.NotAllowed, "password mismatch for run control %q", rc.name)
	}

	var toClose *run.Run
	if rc.state == Running {
		toClose = rc.current
		toClose.Freeze(time.Now())
	}
	rc.current = r
	rc.state = Running
	rc.mu.Unlock()

	if toClose != nil {
		rc.eor.Emit(toClose.Clone())
	}
	rc.sor.Emit(r.Clone())
	return nil
}

// EndCurrentRun transitions RUNNING→IDLE, merging params into the
// current run and emitting EOR(run). While already IDLE it returns
// UNCHANGED and emits no signal (§4.8).
func (rc *RunControl) EndCurrentRun(params map[string]string, password string) error {
	rc.mu.Lock()
	if !rc.checkPassword(password) {
		rc.mu.Unlock()
		return status.Wrapf(status.NotAllowed, "password mismatch for run control %q", rc.name)
	}
	if rc.state == Idle {
		rc.mu.Unlock()
		return status.Wrapf(status.Unchanged, "run control %q is already idle", rc.name)
	}

	r := rc.current
	r.MergeParameters(params)
	r.Freeze(time.Now())
	rc.current = nil
	rc.state = Idle
	rc.mu.Unlock()

	rc.eor.Emit(r.Clone())
	return nil
}
