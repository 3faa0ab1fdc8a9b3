package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interviewprep-dev/interviewprep/pkg/prep/cache"
	"github.com/interviewprep-dev/interviewprep/pkg/prep/config"
	apperrors "github.com/interviewprep-dev/interviewprep/pkg/prep/errors"
	"github.com/interviewprep-dev/interviewprep/pkg/prep/session"
)

// fakeCacheService tracks live remote caches in memory.
type fakeCacheService struct {
	created    int
	live       map[string]*session.CacheHandle
	deleted    []string
	failCreate map[session.Tier]bool
	resolveErr error
}

func newFakeCacheService() *fakeCacheService {
	return &fakeCacheService{
		live:       make(map[string]*session.CacheHandle),
		failCreate: make(map[session.Tier]bool),
	}
}

func (f *fakeCacheService) Create(_ context.Context, tier session.Tier, model, _ string, _ []cache.Block, ttl time.Duration) (*session.CacheHandle, error) {
	if f.failCreate[tier] {
		return nil, apperrors.New(apperrors.ErrCodeCacheCreate,
			fmt.Sprintf("failed to create %s context cache", tier), nil)
	}
	f.created++
	handle := &session.CacheHandle{
		ID:        fmt.Sprintf("caches/%s-%d", tier, f.created),
		Tier:      tier,
		Model:     model,
		CreatedAt: time.Now(),
		TTL:       ttl,
		ExpiresAt: time.Now().Add(ttl),
	}
	f.live[handle.ID] = handle
	return handle, nil
}

func (f *fakeCacheService) Resolve(_ context.Context, handle *session.CacheHandle) error {
	if f.resolveErr != nil {
		return f.resolveErr
	}
	if handle == nil || f.live[handle.ID] == nil {
		return apperrors.NewRemediable(apperrors.ErrCodeCacheExpired,
			"context cache no longer exists", apperrors.RemediationRestart, nil)
	}
	return nil
}

func (f *fakeCacheService) Delete(_ context.Context, handle *session.CacheHandle) {
	if handle == nil {
		return
	}
	delete(f.live, handle.ID)
	f.deleted = append(f.deleted, handle.ID)
}

// liveByTier counts live handles per tier.
func (f *fakeCacheService) liveByTier() map[session.Tier]int {
	counts := make(map[session.Tier]int)
	for _, h := range f.live {
		counts[h.Tier]++
	}
	return counts
}

// fakeGenerator records every prompt and answers with canned replies.
type fakeGenerator struct {
	prompts []string
	reply   string
	err     error
}

func (f *fakeGenerator) Generate(_ context.Context, _, _, promptText string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.prompts = append(f.prompts, promptText)
	if f.reply != "" {
		return f.reply, nil
	}
	return fmt.Sprintf("reply %d", len(f.prompts)), nil
}

func (f *fakeGenerator) lastPrompt() string {
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *fakeCacheService, *fakeGenerator) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Gemini.APIKey = "test-key"
	caches := newFakeCacheService()
	gen := &fakeGenerator{}
	o := New(cfg, caches, gen, slog.New(slog.DiscardHandler))
	return o, caches, gen
}

func analyzed(t *testing.T, o *Orchestrator) {
	t.Helper()
	_, err := o.UploadDocuments(context.Background(), "record text", "statement text")
	require.NoError(t, err)
}

func TestUploadDocuments(t *testing.T) {
	o, caches, gen := newTestOrchestrator(t)

	report, err := o.UploadDocuments(context.Background(), "record text", "statement text")
	require.NoError(t, err)
	assert.NotEmpty(t, report)

	snap := o.Session()
	assert.Equal(t, session.StageAnalyzed, snap.Stage)
	assert.True(t, snap.HasDocuments)
	assert.Equal(t, report, snap.Results[session.ResultInitialReport])
	assert.ElementsMatch(t,
		[]session.Tier{session.TierReporting, session.TierInteractive}, snap.LiveTiers)
	assert.Equal(t, map[session.Tier]int{
		session.TierReporting:   1,
		session.TierInteractive: 1,
	}, caches.liveByTier())
	assert.Contains(t, gen.lastPrompt(), "On command: 'initial analysis'")
}

func TestUploadDocuments_MissingDocument(t *testing.T) {
	o, caches, _ := newTestOrchestrator(t)

	_, err := o.UploadDocuments(context.Background(), "record text", "  ")

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
	assert.Equal(t, session.StageUploading, o.Session().Stage)
	assert.Empty(t, caches.live)
}

func TestUploadDocuments_WrongStage(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	analyzed(t, o)

	_, err := o.UploadDocuments(context.Background(), "new record", "new statement")

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidState))
}

func TestUploadDocuments_SecondCacheFails(t *testing.T) {
	o, caches, _ := newTestOrchestrator(t)
	caches.failCreate[session.TierInteractive] = true

	_, err := o.UploadDocuments(context.Background(), "record text", "statement text")

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeCacheCreate))
	// The reporting cache created first must not be orphaned
	assert.Empty(t, caches.live)
	snap := o.Session()
	assert.Equal(t, session.StageUploading, snap.Stage)
	assert.False(t, snap.HasDocuments)
	assert.Empty(t, snap.Results)
}

func TestUploadDocuments_GenerationFails(t *testing.T) {
	o, caches, gen := newTestOrchestrator(t)
	gen.err = apperrors.New(apperrors.ErrCodeGeneration, "model unavailable", nil)

	_, err := o.UploadDocuments(context.Background(), "record text", "statement text")

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeGeneration))
	assert.Empty(t, caches.live)
	assert.Equal(t, session.StageUploading, o.Session().Stage)
}

func TestReportingActions(t *testing.T) {
	tests := []struct {
		name    string
		action  func(*Orchestrator, context.Context) (string, error)
		kind    session.ResultKind
		command string
	}{
		{
			"additional questions",
			(*Orchestrator).ExtractAdditionalQuestions,
			session.ResultAdditionalQuestions,
			"extract additional questions",
		},
		{
			"strategy report",
			(*Orchestrator).GenerateStrategyReport,
			session.ResultPremiumReport,
			"comprehensive strategy report",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, _, gen := newTestOrchestrator(t)
			analyzed(t, o)

			result, err := tt.action(o, context.Background())
			require.NoError(t, err)

			assert.Equal(t, result, o.Session().Results[tt.kind])
			assert.Contains(t, gen.lastPrompt(), fmt.Sprintf("On command: '%s'", tt.command))
		})
	}
}

func TestReportingAction_WrongStage(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	_, err := o.GenerateStrategyReport(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidState))
}

func TestGenerateModelAnswers_RequiresQuestions(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	analyzed(t, o)

	_, err := o.GenerateModelAnswers(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestGenerateModelAnswers_UsesExtractedSection(t *testing.T) {
	o, _, gen := newTestOrchestrator(t)
	analyzed(t, o)

	gen.reply = "intro\n<<<SECTION:questions>>>\n1. Why us?\n2. Why now?\n<<<END:questions>>>"
	_, err := o.ExtractAdditionalQuestions(context.Background())
	require.NoError(t, err)
	gen.reply = ""

	_, err = o.GenerateModelAnswers(context.Background())
	require.NoError(t, err)

	assert.Contains(t, gen.lastPrompt(), "1. Why us?\n2. Why now?")
	assert.NotContains(t, gen.lastPrompt(), "<<<SECTION:questions>>>")
	assert.Contains(t, gen.lastPrompt(), "On command: 'generate model answers'")
}

func TestStartSimulation(t *testing.T) {
	o, caches, gen := newTestOrchestrator(t)
	analyzed(t, o)

	question, err := o.StartSimulation(context.Background(), 7, false)
	require.NoError(t, err)
	assert.NotEmpty(t, question)

	assert.Contains(t, gen.lastPrompt(), "difficulty: 7, feedback_mode: 'OFF'")

	snap := o.Session()
	assert.Equal(t, session.StageSimulating, snap.Stage)
	require.Len(t, snap.Transcript, 1)
	assert.Equal(t, session.RoleAssistant, snap.Transcript[0].Role)
	assert.Equal(t, question, snap.Transcript[0].Content)

	// The upload-stage interactive cache is superseded, never duplicated
	assert.Equal(t, map[session.Tier]int{
		session.TierReporting:   1,
		session.TierInteractive: 1,
	}, caches.liveByTier())
}

func TestStartSimulation_InvalidDifficulty(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	analyzed(t, o)

	for _, difficulty := range []int{0, 11, -3} {
		_, err := o.StartSimulation(context.Background(), difficulty, true)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
	}
	assert.Equal(t, session.StageAnalyzed, o.Session().Stage)
}

func TestStartSimulation_WrongStage(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	_, err := o.StartSimulation(context.Background(), 5, true)

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidState))
}

func TestStartSimulation_CreateFails_KeepsState(t *testing.T) {
	o, caches, _ := newTestOrchestrator(t)
	analyzed(t, o)
	caches.failCreate[session.TierInteractive] = true

	_, err := o.StartSimulation(context.Background(), 5, true)

	require.Error(t, err)
	snap := o.Session()
	assert.Equal(t, session.StageAnalyzed, snap.Stage)
	// The old interactive handle from the upload stage is untouched
	assert.Equal(t, 1, caches.liveByTier()[session.TierInteractive])
}

func TestSubmitTurn(t *testing.T) {
	o, _, gen := newTestOrchestrator(t)
	analyzed(t, o)
	_, err := o.StartSimulation(context.Background(), 5, true)
	require.NoError(t, err)

	reply, done, err := o.SubmitTurn(context.Background(), "my answer")
	require.NoError(t, err)
	assert.False(t, done)
	assert.NotEmpty(t, reply)

	snap := o.Session()
	require.Len(t, snap.Transcript, 3)
	assert.Equal(t, "my answer", snap.Transcript[1].Content)
	assert.Equal(t, reply, snap.Transcript[2].Content)
	assert.Contains(t, gen.lastPrompt(), "[candidate answer]\nmy answer")
}

func TestSubmitTurn_TerminateWord(t *testing.T) {
	o, caches, _ := newTestOrchestrator(t)
	analyzed(t, o)
	_, err := o.StartSimulation(context.Background(), 5, true)
	require.NoError(t, err)

	report, done, err := o.SubmitTurn(context.Background(), "  End ")
	require.NoError(t, err)
	assert.True(t, done)
	assert.NotEmpty(t, report)

	snap := o.Session()
	assert.Equal(t, session.StageAnalyzed, snap.Stage)
	assert.Equal(t, report, snap.Results[session.ResultSimulationReport])
	assert.Empty(t, snap.Transcript)
	assert.NotEmpty(t, snap.TranscriptArchive)
	assert.Zero(t, caches.liveByTier()[session.TierInteractive])
}

func TestSubmitTurn_NoSimulation(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	analyzed(t, o)

	_, _, err := o.SubmitTurn(context.Background(), "hello")

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidState))
}

func TestEndSimulation(t *testing.T) {
	o, _, gen := newTestOrchestrator(t)
	analyzed(t, o)
	_, err := o.StartSimulation(context.Background(), 5, true)
	require.NoError(t, err)
	_, _, err = o.SubmitTurn(context.Background(), "answer one")
	require.NoError(t, err)

	report, err := o.EndSimulation(context.Background())
	require.NoError(t, err)

	assert.Contains(t, gen.lastPrompt(), "On command: 'interview simulation final report'")
	assert.Contains(t, gen.lastPrompt(), "Candidate: answer one")

	snap := o.Session()
	assert.Equal(t, session.StageAnalyzed, snap.Stage)
	assert.Equal(t, report, snap.Results[session.ResultSimulationReport])
	require.Len(t, snap.TranscriptArchive, 3)
}

func TestEndSimulation_Twice(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	analyzed(t, o)
	_, err := o.StartSimulation(context.Background(), 5, true)
	require.NoError(t, err)

	_, err = o.EndSimulation(context.Background())
	require.NoError(t, err)

	_, err = o.EndSimulation(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidState))
}

func TestRestart(t *testing.T) {
	o, caches, _ := newTestOrchestrator(t)
	analyzed(t, o)
	oldID := o.Session().ID

	o.Restart()

	snap := o.Session()
	assert.NotEqual(t, oldID, snap.ID)
	assert.Equal(t, session.StageUploading, snap.Stage)
	assert.Empty(t, snap.Results)
	assert.Empty(t, caches.live)

	// Restart is idempotent
	o.Restart()
	assert.Equal(t, session.StageUploading, o.Session().Stage)
	assert.Empty(t, caches.live)
}

func TestRestart_DuringSimulation(t *testing.T) {
	o, caches, _ := newTestOrchestrator(t)
	analyzed(t, o)
	_, err := o.StartSimulation(context.Background(), 5, true)
	require.NoError(t, err)

	o.Restart()

	assert.Equal(t, session.StageUploading, o.Session().Stage)
	assert.Empty(t, caches.live)

	_, _, err = o.SubmitTurn(context.Background(), "hello")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidState))
}

func TestOneHandlePerTier_AcrossLifecycle(t *testing.T) {
	o, caches, _ := newTestOrchestrator(t)
	analyzed(t, o)

	for i := 0; i < 3; i++ {
		_, err := o.StartSimulation(context.Background(), 5, true)
		require.NoError(t, err)
		_, err = o.EndSimulation(context.Background())
		require.NoError(t, err)
	}

	counts := caches.liveByTier()
	assert.Equal(t, 1, counts[session.TierReporting])
	assert.Zero(t, counts[session.TierInteractive])

	o.Restart()
	analyzed(t, o)
	for tier, n := range caches.liveByTier() {
		assert.Equal(t, 1, n, "tier %s", tier)
	}
}

func TestExpiredCache_LeavesStateUnchanged(t *testing.T) {
	o, caches, _ := newTestOrchestrator(t)
	analyzed(t, o)
	initialReport := o.Session().Results[session.ResultInitialReport]

	caches.resolveErr = apperrors.NewRemediable(apperrors.ErrCodeCacheExpired,
		"context cache no longer exists", apperrors.RemediationRestart, nil)

	_, err := o.GenerateStrategyReport(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeCacheExpired))
	assert.Equal(t, apperrors.RemediationRestart, apperrors.RemediationOf(err))

	snap := o.Session()
	assert.Equal(t, session.StageAnalyzed, snap.Stage)
	assert.Equal(t, initialReport, snap.Results[session.ResultInitialReport])
	assert.NotContains(t, snap.Results, session.ResultPremiumReport)
}

func TestExpiredCache_DuringSimulationTurn(t *testing.T) {
	o, caches, _ := newTestOrchestrator(t)
	analyzed(t, o)
	_, err := o.StartSimulation(context.Background(), 5, true)
	require.NoError(t, err)

	caches.resolveErr = apperrors.NewRemediable(apperrors.ErrCodeCacheExpired,
		"context cache no longer exists", apperrors.RemediationRestart, nil)

	_, _, err = o.SubmitTurn(context.Background(), "my answer")

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeCacheExpired))
	assert.Equal(t, session.StageSimulating, o.Session().Stage)
}
