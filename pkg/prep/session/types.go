// Package session holds the in-memory state of one interview-prep
// workflow: the submitted documents, the live context cache handles,
// the accumulated analysis results, and the simulation transcript.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Stage is the workflow stage of a session.
type Stage string

const (
	// StageUploading is the initial stage: no documents analyzed yet.
	StageUploading Stage = "uploading"
	// StageAnalyzed means documents are cached and the initial report exists.
	StageAnalyzed Stage = "analyzed"
	// StageSimulating means a mock interview is in progress.
	StageSimulating Stage = "simulating"
)

// Tier names one of the two model tiers a session holds caches for.
type Tier string

const (
	// TierReporting backs the heavyweight analysis and report actions.
	TierReporting Tier = "reporting"
	// TierInteractive backs the low-latency simulation chat.
	TierInteractive Tier = "interactive"
)

// ResultKind names one of the append-only result slots.
type ResultKind string

const (
	ResultInitialReport       ResultKind = "initial_report"
	ResultAdditionalQuestions ResultKind = "additional_questions"
	ResultPremiumReport       ResultKind = "premium_report"
	ResultModelAnswers        ResultKind = "model_answers"
	ResultSimulationReport    ResultKind = "simulation_report"
)

// Role identifies the author of a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one utterance in a simulation transcript.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CacheHandle references a server-side cached context. The expiry is
// advisory only: the remote side is the source of truth, and a handle
// the remote no longer knows is an expected condition.
type CacheHandle struct {
	ID        string        `json:"id"`
	Tier      Tier          `json:"tier"`
	Model     string        `json:"model"`
	CreatedAt time.Time     `json:"created_at"`
	TTL       time.Duration `json:"ttl"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// Session is the aggregate for a single user's workflow. It is a plain
// state holder: all invariants that span remote calls are enforced by
// the orchestrator, which serializes access.
type Session struct {
	id        string
	createdAt time.Time

	stage Stage

	studentRecord     string
	personalStatement string
	documentsSet      bool

	caches  map[Tier]*CacheHandle
	results map[ResultKind]string

	transcript        []Turn
	transcriptArchive []Turn
}

// New creates a fresh session in the uploading stage.
func New() *Session {
	return &Session{
		id:        uuid.New().String(),
		createdAt: time.Now(),
		stage:     StageUploading,
		caches:    make(map[Tier]*CacheHandle),
		results:   make(map[ResultKind]string),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Stage returns the current workflow stage.
func (s *Session) Stage() Stage {
	return s.stage
}

// SetStage moves the session to the given stage.
func (s *Session) SetStage(stage Stage) {
	s.stage = stage
}

// SetDocuments stores the extracted document texts. Documents are
// immutable once set; a second call is ignored. A full restart replaces
// the session instead of mutating it.
func (s *Session) SetDocuments(studentRecord, personalStatement string) {
	if s.documentsSet {
		return
	}
	s.studentRecord = studentRecord
	s.personalStatement = personalStatement
	s.documentsSet = true
}

// HasDocuments reports whether both documents have been stored.
func (s *Session) HasDocuments() bool {
	return s.documentsSet
}

// StudentRecord returns the extracted student record text.
func (s *Session) StudentRecord() string {
	return s.studentRecord
}

// PersonalStatement returns the extracted personal statement text.
func (s *Session) PersonalStatement() string {
	return s.personalStatement
}

// Cache returns the live handle for a tier, or nil.
func (s *Session) Cache(tier Tier) *CacheHandle {
	return s.caches[tier]
}

// SetCache installs a handle for its tier and returns the handle it
// replaced, if any, so the caller can release the superseded remote
// cache. A tier never holds more than one handle.
func (s *Session) SetCache(handle *CacheHandle) *CacheHandle {
	prev := s.caches[handle.Tier]
	s.caches[handle.Tier] = handle
	return prev
}

// TakeCache removes and returns the handle for a tier, or nil.
func (s *Session) TakeCache(tier Tier) *CacheHandle {
	handle := s.caches[tier]
	delete(s.caches, tier)
	return handle
}

// LiveCaches returns all currently held handles.
func (s *Session) LiveCaches() []*CacheHandle {
	handles := make([]*CacheHandle, 0, len(s.caches))
	for _, h := range s.caches {
		handles = append(handles, h)
	}
	return handles
}

// SetResult stores a result in its slot. Empty content is ignored so a
// failed generation never clobbers an earlier result.
func (s *Session) SetResult(kind ResultKind, content string) {
	if content == "" {
		return
	}
	s.results[kind] = content
}

// Result returns the stored result for a kind, or "".
func (s *Session) Result(kind ResultKind) string {
	return s.results[kind]
}

// Results returns a copy of all stored results.
func (s *Session) Results() map[ResultKind]string {
	out := make(map[ResultKind]string, len(s.results))
	for k, v := range s.results {
		out[k] = v
	}
	return out
}

// Transcript returns the live simulation transcript.
func (s *Session) Transcript() []Turn {
	return s.transcript
}

// TranscriptArchive returns the transcript of the last finalized
// simulation, if any.
func (s *Session) TranscriptArchive() []Turn {
	return s.transcriptArchive
}

// Snapshot is a read-only view of a session for presentation surfaces.
type Snapshot struct {
	ID                string                `json:"id"`
	Stage             Stage                 `json:"stage"`
	CreatedAt         time.Time             `json:"created_at"`
	HasDocuments      bool                  `json:"has_documents"`
	LiveTiers         []Tier                `json:"live_tiers"`
	Results           map[ResultKind]string `json:"results"`
	Transcript        []Turn                `json:"transcript,omitempty"`
	TranscriptArchive []Turn                `json:"transcript_archive,omitempty"`
}

// Snapshot returns a copy of the session state safe to serialize.
func (s *Session) Snapshot() Snapshot {
	tiers := make([]Tier, 0, len(s.caches))
	for tier := range s.caches {
		tiers = append(tiers, tier)
	}
	transcript := make([]Turn, len(s.transcript))
	copy(transcript, s.transcript)
	archive := make([]Turn, len(s.transcriptArchive))
	copy(archive, s.transcriptArchive)
	return Snapshot{
		ID:                s.id,
		Stage:             s.stage,
		CreatedAt:         s.createdAt,
		HasDocuments:      s.documentsSet,
		LiveTiers:         tiers,
		Results:           s.Results(),
		Transcript:        transcript,
		TranscriptArchive: archive,
	}
}
