// Package orchestrator drives the interview-prep workflow: document
// upload and analysis, the premium report actions, and the mock
// interview loop. It owns the single session and the lifecycle of its
// context caches.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/interviewprep-dev/interviewprep/pkg/prep/cache"
	"github.com/interviewprep-dev/interviewprep/pkg/prep/config"
	apperrors "github.com/interviewprep-dev/interviewprep/pkg/prep/errors"
	"github.com/interviewprep-dev/interviewprep/pkg/prep/llm"
	"github.com/interviewprep-dev/interviewprep/pkg/prep/prompt"
	"github.com/interviewprep-dev/interviewprep/pkg/prep/session"
)

// Orchestrator is the workflow state machine. Methods are not safe for
// concurrent use; callers serialize access (the HTTP surface holds a
// mutex, the chat CLI is single-threaded).
type Orchestrator struct {
	cfg    *config.Config
	caches cache.Service
	gen    llm.Generator
	logger *slog.Logger

	sess *session.Session
	sim  *session.Simulation
}

// New creates an orchestrator with a fresh session.
func New(cfg *config.Config, caches cache.Service, gen llm.Generator, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:    cfg,
		caches: caches,
		gen:    gen,
		logger: logger,
		sess:   session.New(),
	}
}

// Session returns a snapshot of the current session.
func (o *Orchestrator) Session() session.Snapshot {
	return o.sess.Snapshot()
}

// UploadDocuments ingests the extracted document texts, creates the
// context caches for both tiers, and runs the initial analysis. The
// session is only mutated once every remote step has succeeded, so a
// failure leaves it in the uploading stage with nothing half-applied.
func (o *Orchestrator) UploadDocuments(ctx context.Context, studentRecord, personalStatement string) (string, error) {
	if o.sess.Stage() != session.StageUploading {
		return "", apperrors.New(apperrors.ErrCodeInvalidState,
			fmt.Sprintf("documents already analyzed (stage %s); restart to submit new ones", o.sess.Stage()), nil)
	}
	if strings.TrimSpace(studentRecord) == "" || strings.TrimSpace(personalStatement) == "" {
		return "", apperrors.New(apperrors.ErrCodeValidation,
			"both student record and personal statement are required", nil)
	}

	blocks := documentBlocks(studentRecord, personalStatement)

	reporting, err := o.createCache(ctx, session.TierReporting, blocks)
	if err != nil {
		return "", err
	}

	interactive, err := o.createCache(ctx, session.TierInteractive, blocks)
	if err != nil {
		o.deleteCache(reporting)
		return "", err
	}

	report, err := o.generate(ctx, reporting, prompt.InitialAnalysisPrompt())
	if err != nil {
		o.deleteCache(reporting)
		o.deleteCache(interactive)
		return "", err
	}

	o.sess.SetDocuments(studentRecord, personalStatement)
	o.sess.SetCache(reporting)
	o.sess.SetCache(interactive)
	o.sess.SetResult(session.ResultInitialReport, report)
	o.sess.SetStage(session.StageAnalyzed)

	o.logger.Info("documents analyzed", "session", o.sess.ID())
	return report, nil
}

// ExtractAdditionalQuestions runs the deep-dive question extraction on
// the reporting cache.
func (o *Orchestrator) ExtractAdditionalQuestions(ctx context.Context) (string, error) {
	return o.reportingAction(ctx, session.ResultAdditionalQuestions, prompt.AdditionalQuestionsPrompt())
}

// GenerateStrategyReport runs the comprehensive strategy report on the
// reporting cache.
func (o *Orchestrator) GenerateStrategyReport(ctx context.Context) (string, error) {
	return o.reportingAction(ctx, session.ResultPremiumReport, prompt.StrategyReportPrompt())
}

// GenerateModelAnswers produces model answers for the previously
// extracted question list.
func (o *Orchestrator) GenerateModelAnswers(ctx context.Context) (string, error) {
	questions := o.questionList()
	if questions == "" {
		return "", apperrors.New(apperrors.ErrCodeValidation,
			"no question list available; extract additional questions first", nil)
	}
	return o.reportingAction(ctx, session.ResultModelAnswers, prompt.ModelAnswersPrompt(questions))
}

// StartSimulation opens a mock interview. A fresh interactive cache is
// created, seeded with the documents and every analysis result so far,
// and supersedes the lightweight one from the upload stage. The first
// interviewer question is returned.
func (o *Orchestrator) StartSimulation(ctx context.Context, difficulty int, feedback bool) (string, error) {
	if o.sess.Stage() != session.StageAnalyzed {
		return "", apperrors.New(apperrors.ErrCodeInvalidState,
			fmt.Sprintf("cannot start a simulation in stage %s", o.sess.Stage()), nil)
	}
	if difficulty < 1 || difficulty > 10 {
		return "", apperrors.New(apperrors.ErrCodeValidation,
			fmt.Sprintf("difficulty must be between 1 and 10, got %d", difficulty), nil)
	}

	blocks := append(
		documentBlocks(o.sess.StudentRecord(), o.sess.PersonalStatement()),
		o.resultBlocks()...)

	interactive, err := o.createCache(ctx, session.TierInteractive, blocks)
	if err != nil {
		return "", err
	}

	firstQuestion, err := o.generate(ctx, interactive, prompt.SimulationStartPrompt(difficulty, feedback))
	if err != nil {
		o.deleteCache(interactive)
		return "", err
	}

	if prev := o.sess.SetCache(interactive); prev != nil {
		o.deleteCache(prev)
	}
	o.sim = session.NewSimulation(o.sess)
	o.sim.AppendAssistantTurn(firstQuestion)

	o.logger.Info("simulation started", "session", o.sess.ID(), "difficulty", difficulty, "feedback", feedback)
	return firstQuestion, nil
}

// SubmitTurn records a candidate answer and returns the interviewer's
// reply. When the input is the configured terminate word the interview
// ends instead and the final report is returned with done set.
func (o *Orchestrator) SubmitTurn(ctx context.Context, input string) (reply string, done bool, err error) {
	if o.sess.Stage() != session.StageSimulating || o.sim == nil {
		return "", false, apperrors.New(apperrors.ErrCodeInvalidState,
			"no simulation in progress", nil)
	}
	if strings.TrimSpace(input) == "" {
		return "", false, apperrors.New(apperrors.ErrCodeValidation, "empty answer", nil)
	}

	if strings.EqualFold(strings.TrimSpace(input), o.cfg.Workflow.TerminateWord) {
		report, err := o.EndSimulation(ctx)
		if err != nil {
			return "", false, err
		}
		return report, true, nil
	}

	turnPrompt := prompt.SimulationTurnPrompt(o.sim.Turns(), input)
	o.sim.AppendUserTurn(input)

	interactive := o.sess.Cache(session.TierInteractive)
	if err := o.resolve(ctx, interactive); err != nil {
		return "", false, err
	}

	reply, err = o.generate(ctx, interactive, turnPrompt)
	if err != nil {
		return "", false, err
	}
	o.sim.AppendAssistantTurn(reply)
	return reply, false, nil
}

// EndSimulation finalizes the running interview: the transcript is
// evaluated on the reporting cache, archived, and the interactive cache
// is released.
func (o *Orchestrator) EndSimulation(ctx context.Context) (string, error) {
	if o.sess.Stage() != session.StageSimulating || o.sim == nil {
		return "", apperrors.New(apperrors.ErrCodeInvalidState,
			"no simulation in progress", nil)
	}

	reporting := o.sess.Cache(session.TierReporting)
	if err := o.resolve(ctx, reporting); err != nil {
		return "", err
	}

	report, err := o.generate(ctx, reporting, prompt.FinalReportPrompt(o.sim.Turns()))
	if err != nil {
		return "", err
	}

	if err := o.sim.Finalize(report); err != nil {
		return "", err
	}
	o.sim = nil

	if interactive := o.sess.TakeCache(session.TierInteractive); interactive != nil {
		o.deleteCache(interactive)
	}

	o.logger.Info("simulation finalized", "session", o.sess.ID())
	return report, nil
}

// Restart discards the session: all live caches are released
// best-effort and a fresh uploading-stage session replaces the old one.
// Restart never fails and is safe to repeat.
func (o *Orchestrator) Restart() {
	for _, handle := range o.sess.LiveCaches() {
		o.deleteCache(handle)
	}
	old := o.sess.ID()
	o.sess = session.New()
	o.sim = nil
	o.logger.Info("session restarted", "previous", old, "session", o.sess.ID())
}

// reportingAction runs one premium action: guard the stage, check the
// reporting cache is alive, generate, store. A failure at any step
// leaves previously stored results untouched.
func (o *Orchestrator) reportingAction(ctx context.Context, kind session.ResultKind, promptText string) (string, error) {
	if o.sess.Stage() != session.StageAnalyzed {
		return "", apperrors.New(apperrors.ErrCodeInvalidState,
			fmt.Sprintf("action requires an analyzed session, stage is %s", o.sess.Stage()), nil)
	}

	reporting := o.sess.Cache(session.TierReporting)
	if err := o.resolve(ctx, reporting); err != nil {
		return "", err
	}

	result, err := o.generate(ctx, reporting, promptText)
	if err != nil {
		return "", err
	}

	o.sess.SetResult(kind, result)
	o.logger.Info("result stored", "session", o.sess.ID(), "kind", string(kind))
	return result, nil
}

// questionList recovers the bare question list from the stored
// additional-questions result.
func (o *Orchestrator) questionList() string {
	raw := o.sess.Result(session.ResultAdditionalQuestions)
	if raw == "" {
		return ""
	}
	return prompt.ExtractSection(raw, "questions")
}

func (o *Orchestrator) createCache(ctx context.Context, tier session.Tier, blocks []cache.Block) (*session.CacheHandle, error) {
	callCtx, cancel := o.callCtx(ctx)
	defer cancel()
	return o.caches.Create(callCtx, tier, o.cfg.Gemini.Model(string(tier)),
		o.cfg.Workflow.SystemInstruction, blocks, o.cfg.Cache.TTL)
}

func (o *Orchestrator) resolve(ctx context.Context, handle *session.CacheHandle) error {
	callCtx, cancel := o.callCtx(ctx)
	defer cancel()
	return o.caches.Resolve(callCtx, handle)
}

func (o *Orchestrator) generate(ctx context.Context, handle *session.CacheHandle, promptText string) (string, error) {
	callCtx, cancel := o.callCtx(ctx)
	defer cancel()
	return o.gen.Generate(callCtx, handle.Model, handle.ID, promptText)
}

// deleteCache releases a remote cache without a caller deadline: the
// triggering request may already be failing, and the delete is
// best-effort anyway.
func (o *Orchestrator) deleteCache(handle *session.CacheHandle) {
	callCtx, cancel := o.callCtx(context.Background())
	defer cancel()
	o.caches.Delete(callCtx, handle)
}

func (o *Orchestrator) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.cfg.Workflow.RequestTimeout)
}

func documentBlocks(studentRecord, personalStatement string) []cache.Block {
	return []cache.Block{
		{Label: "student record", Text: studentRecord},
		{Label: "personal statement", Text: personalStatement},
	}
}

// resultBlocks collects the analysis results accumulated so far, in a
// fixed order, for seeding the simulation cache.
func (o *Orchestrator) resultBlocks() []cache.Block {
	kinds := []struct {
		kind  session.ResultKind
		label string
	}{
		{session.ResultInitialReport, "initial analysis report"},
		{session.ResultAdditionalQuestions, "additional questions"},
		{session.ResultPremiumReport, "strategy report"},
		{session.ResultModelAnswers, "model answers"},
	}
	var blocks []cache.Block
	for _, k := range kinds {
		if text := o.sess.Result(k.kind); text != "" {
			blocks = append(blocks, cache.Block{Label: k.label, Text: text})
		}
	}
	return blocks
}
