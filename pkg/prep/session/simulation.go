package session

import (
	apperrors "github.com/interviewprep-dev/interviewprep/pkg/prep/errors"
)

// Simulation is the turn loop of one mock interview. It owns the live
// transcript of its session and finalizes exactly once: finalization
// moves the transcript into the session archive and records the final
// report.
type Simulation struct {
	sess      *Session
	finalized bool
}

// NewSimulation starts a mock interview on the session: the live
// transcript is cleared and the session enters the simulating stage.
func NewSimulation(sess *Session) *Simulation {
	sess.transcript = nil
	sess.SetStage(StageSimulating)
	return &Simulation{sess: sess}
}

// AppendUserTurn records a candidate utterance.
func (sim *Simulation) AppendUserTurn(content string) {
	sim.sess.transcript = append(sim.sess.transcript, Turn{Role: RoleUser, Content: content})
}

// AppendAssistantTurn records an interviewer utterance.
func (sim *Simulation) AppendAssistantTurn(content string) {
	sim.sess.transcript = append(sim.sess.transcript, Turn{Role: RoleAssistant, Content: content})
}

// Turns returns the transcript so far.
func (sim *Simulation) Turns() []Turn {
	return sim.sess.transcript
}

// Finalized reports whether the simulation has ended.
func (sim *Simulation) Finalized() bool {
	return sim.finalized
}

// Finalize ends the simulation: the report is stored, the transcript is
// moved (not copied) into the session archive, and the session returns
// to the analyzed stage. A second finalize is an invalid-state error.
func (sim *Simulation) Finalize(report string) error {
	if sim.finalized {
		return apperrors.New(apperrors.ErrCodeInvalidState,
			"simulation already finalized", nil)
	}
	sim.finalized = true

	sim.sess.SetResult(ResultSimulationReport, report)
	sim.sess.transcriptArchive = sim.sess.transcript
	sim.sess.transcript = nil
	sim.sess.SetStage(StageAnalyzed)
	return nil
}
