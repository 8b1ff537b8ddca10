// Package focus implements the work/break session state machine. The
// scheduler is bound to exactly one task at a time and is driven by an
// external per-second Tick; it never owns a timer itself, which keeps the
// transitions deterministic under test.
package focus

import (
	"sync"
	"time"

	"github.com/candemir/studydeck/internal/task"
)

// Phase of the running session.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseFocus    Phase = "focus"
	PhaseBreak    Phase = "break"
	PhaseComplete Phase = "complete"
)

// Default interval lengths. The scheduler starts with these; persisted
// settings may override them via SetDurations.
const (
	FocusSeconds   = 25 * 60
	BreakSeconds   = 5 * 60
	SessionMinutes = 30 // estimate granularity that determines cycle count
)

// Completer marks the bound task complete when all sessions are exhausted.
// This is the scheduler's single authorized write into task state. The
// transition is forward-only: a task the user already completed mid-session
// must stay completed.
type Completer interface {
	Complete(id string, recorder task.CompletionRecorder) (*task.Task, error)
}

// Snapshot is the minimal persisted state needed to resume a session after
// a restart.
type Snapshot struct {
	TaskID            string `json:"task_id"`
	TaskTitle         string `json:"task_title"`
	Phase             Phase  `json:"phase"`
	SecondsRemaining  int    `json:"seconds_remaining"`
	SessionsRemaining int    `json:"sessions_remaining"`
}

// Scheduler runs focus/break cycles against one bound task. All methods
// are safe for the single-goroutine TUI loop; Tick additionally serializes
// against itself so a late tick can never overlap a transition.
type Scheduler struct {
	mu sync.Mutex

	taskID    string
	taskTitle string

	phase             Phase
	secondsRemaining  int
	sessionsRemaining int
	totalSessions     int
	running           bool

	focusSeconds   int
	breakSeconds   int
	sessionMinutes int

	completer Completer
	recorder  task.CompletionRecorder
	onPhase   func(Phase) // optional notification hook
}

// NewScheduler wires the scheduler to the store it completes tasks
// through and the ledger completions are recorded into.
func NewScheduler(completer Completer, recorder task.CompletionRecorder) *Scheduler {
	return &Scheduler{
		phase:          PhaseIdle,
		focusSeconds:   FocusSeconds,
		breakSeconds:   BreakSeconds,
		sessionMinutes: SessionMinutes,
		completer:      completer,
		recorder:       recorder,
	}
}

// SetDurations overrides the interval lengths and the estimate granularity.
// Non-positive values keep the current setting. A running countdown keeps
// its remaining time; the new lengths apply from the next phase onward.
func (s *Scheduler) SetDurations(focusSeconds, breakSeconds, sessionMinutes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if focusSeconds > 0 {
		s.focusSeconds = focusSeconds
	}
	if breakSeconds > 0 {
		s.breakSeconds = breakSeconds
	}
	if sessionMinutes > 0 {
		s.sessionMinutes = sessionMinutes
	}
}

// OnPhaseChange registers a hook invoked after every phase transition.
func (s *Scheduler) OnPhaseChange(fn func(Phase)) {
	s.onPhase = fn
}

// Start binds the scheduler to a task and begins the first focus interval.
// The number of focus cycles derives from the estimate at 30-minute
// granularity, never below one; the 25/5 cadence is fixed.
func (s *Scheduler) Start(t *task.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := t.EstimatedMinutes / s.sessionMinutes
	if sessions < 1 {
		sessions = 1
	}

	s.taskID = t.ID
	s.taskTitle = t.Title
	s.totalSessions = sessions
	s.sessionsRemaining = sessions
	s.phase = PhaseFocus
	s.secondsRemaining = s.focusSeconds
	s.running = true
	s.notify()
}

// Tick advances the countdown by one second. Phase transitions happen only
// here, under the lock, so overlapping ticks apply strictly one at a time.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.phase == PhaseIdle || s.phase == PhaseComplete {
		return
	}
	if s.secondsRemaining > 0 {
		s.secondsRemaining--
	}
	if s.secondsRemaining > 0 {
		return
	}

	switch s.phase {
	case PhaseFocus:
		if s.sessionsRemaining > 1 {
			s.sessionsRemaining--
			s.phase = PhaseBreak
			s.secondsRemaining = s.breakSeconds
			s.notify()
			return
		}
		// Last focus interval done: complete the task and unbind.
		s.phase = PhaseComplete
		s.sessionsRemaining = 0
		s.running = false
		if s.completer != nil && s.taskID != "" {
			s.completer.Complete(s.taskID, s.recorder)
		}
		s.taskID = ""
		s.notify()

	case PhaseBreak:
		s.phase = PhaseFocus
		s.secondsRemaining = s.focusSeconds
		s.notify()
	}
}

// Pause stops the countdown without touching phase or remaining time.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseFocus || s.phase == PhaseBreak {
		s.running = false
	}
}

// Resume continues a paused session.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseFocus || s.phase == PhaseBreak {
		s.running = true
	}
}

// Toggle flips between paused and running.
func (s *Scheduler) Toggle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseFocus || s.phase == PhaseBreak {
		s.running = !s.running
	}
}

// Reset returns to the first focus interval with the full session count,
// not running. The binding is kept.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.taskID == "" {
		return
	}
	s.phase = PhaseFocus
	s.secondsRemaining = s.focusSeconds
	s.sessionsRemaining = s.totalSessions
	s.running = false
	s.notify()
}

// Cancel abandons the session entirely. The bound task keeps whatever
// completion state it had; no partial credit.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskID = ""
	s.taskTitle = ""
	s.phase = PhaseIdle
	s.secondsRemaining = 0
	s.sessionsRemaining = 0
	s.totalSessions = 0
	s.running = false
	s.notify()
}

// Snapshot captures the resume-after-restart state, or nil when no
// session is bound.
func (s *Scheduler) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.taskID == "" || s.phase == PhaseIdle || s.phase == PhaseComplete {
		return nil
	}
	return &Snapshot{
		TaskID:            s.taskID,
		TaskTitle:         s.taskTitle,
		Phase:             s.phase,
		SecondsRemaining:  s.secondsRemaining,
		SessionsRemaining: s.sessionsRemaining,
	}
}

// Restore rebinds a previously snapshotted session, paused.
func (s *Scheduler) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskID = snap.TaskID
	s.taskTitle = snap.TaskTitle
	s.phase = snap.Phase
	s.secondsRemaining = snap.SecondsRemaining
	s.sessionsRemaining = snap.SessionsRemaining
	if s.totalSessions < snap.SessionsRemaining {
		s.totalSessions = snap.SessionsRemaining
	}
	s.running = false
}

// --- Read accessors for the view layer ---

func (s *Scheduler) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.secondsRemaining) * time.Second
}

func (s *Scheduler) SessionsRemaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionsRemaining
}

func (s *Scheduler) TotalSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalSessions
}

func (s *Scheduler) BoundTask() (id, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.taskID, s.taskTitle
}

func (s *Scheduler) notify() {
	if s.onPhase != nil {
		s.onPhase(s.phase)
	}
}
