package orchestrator

import (
	"fmt"

	"github.com/shaiso/seoagent/internal/domain"
)

// Phase — фаза одного запуска пайплайна.
type Phase int

const (
	PhaseCreated Phase = iota
	PhaseSelecting
	PhaseAnalyzing
	PhaseDrafting
	PhaseOptimizing
	PhaseGating
	PhasePublishing
	PhaseFinalizing
	PhaseCompleted
	PhaseFailed
	PhaseCancelled
)

var phaseNames = [...]string{
	PhaseCreated:    "created",
	PhaseSelecting:  "selecting",
	PhaseAnalyzing:  "analyzing",
	PhaseDrafting:   "drafting",
	PhaseOptimizing: "optimizing",
	PhaseGating:     "gating",
	PhasePublishing: "publishing",
	PhaseFinalizing: "finalizing",
	PhaseCompleted:  "completed",
	PhaseFailed:     "failed",
	PhaseCancelled:  "cancelled",
}

// String возвращает имя фазы.
func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// IsTerminal — фаза, после которой запуск не продолжается.
func (p Phase) IsTerminal() bool {
	return p == PhaseCompleted || p == PhaseFailed || p == PhaseCancelled
}

// RunState — состояние одного запуска в памяти.
//
// Фазы идут строго вперёд. finalize выполняет запись финального
// статуса job не более одного раза: после успешной финализации
// любая следующая попытка возвращает ErrAlreadyFinalized.
type RunState struct {
	Job *domain.Job

	phase     Phase
	finalized bool
	attempts  int
}

// NewRunState создаёт состояние для созданного job.
func NewRunState(job *domain.Job) *RunState {
	return &RunState{Job: job, phase: PhaseCreated}
}

// Phase возвращает текущую фазу.
func (s *RunState) Phase() Phase {
	return s.phase
}

// Advance переводит запуск в следующую фазу.
func (s *RunState) Advance(next Phase) error {
	if s.phase.IsTerminal() {
		return fmt.Errorf("run is %s, cannot enter %s", s.phase, next)
	}
	if next <= s.phase {
		return fmt.Errorf("phase %s cannot follow %s", next, s.phase)
	}
	s.phase = next
	return nil
}

// Finalized сообщает, записан ли финальный статус job.
func (s *RunState) Finalized() bool {
	return s.finalized
}

// FinalizeAttempts — сколько раз вызывалась запись финального статуса.
func (s *RunState) FinalizeAttempts() int {
	return s.attempts
}

// finalize выполняет write и фиксирует terminal фазу при успехе.
func (s *RunState) finalize(terminal Phase, write func() error) error {
	if s.finalized {
		return ErrAlreadyFinalized
	}
	s.attempts++
	if err := write(); err != nil {
		return err
	}
	s.finalized = true
	s.phase = terminal
	return nil
}
