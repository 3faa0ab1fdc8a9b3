// Package prompt composes the delta prompts sent against the cached
// document context. The documents themselves are never repeated here:
// they live in the server-side cache, and every prompt carries only the
// stage command plus whatever small fragments that stage needs.
package prompt

import (
	"fmt"
	"strings"

	"github.com/interviewprep-dev/interviewprep/pkg/prep/session"
)

// Stage command strings. The system instruction in the cache explains
// what each command means; the prompt just issues it.
const (
	CommandInitialAnalysis     = "initial analysis"
	CommandAdditionalQuestions = "extract additional questions"
	CommandStrategyReport      = "comprehensive strategy report"
	CommandModelAnswers        = "generate model answers"
	CommandStartSimulation     = "start interview simulation"
	CommandFinalReport         = "interview simulation final report"
)

// Fragment is one labeled block of a composed prompt.
type Fragment struct {
	Label string
	Text  string
}

// StagePrompt composes a delta prompt: each non-empty fragment under a
// bracketed label, then the stage command. Empty fragments are omitted
// silently.
func StagePrompt(command string, fragments ...Fragment) string {
	var b strings.Builder
	for _, f := range fragments {
		if f.Text == "" {
			continue
		}
		fmt.Fprintf(&b, "[%s]\n%s\n\n", f.Label, f.Text)
	}
	fmt.Fprintf(&b, "[user command]\nOn command: '%s'", command)
	return b.String()
}

// InitialAnalysisPrompt asks for the initial report with representative
// questions.
func InitialAnalysisPrompt() string {
	return StagePrompt(CommandInitialAnalysis)
}

// AdditionalQuestionsPrompt asks for the deep-dive question list, with
// the bare questions wrapped in a recoverable section.
func AdditionalQuestionsPrompt() string {
	return StagePrompt(CommandAdditionalQuestions,
		Fragment{Label: "output format", Text: SectionDirective("questions")})
}

// StrategyReportPrompt asks for the comprehensive strategy report.
func StrategyReportPrompt() string {
	return StagePrompt(CommandStrategyReport)
}

// ModelAnswersPrompt asks for a model answer to every question in the
// given list.
func ModelAnswersPrompt(questionList string) string {
	return StagePrompt(CommandModelAnswers,
		Fragment{Label: "question list", Text: questionList})
}

// SimulationStartPrompt opens a mock interview at the given difficulty
// (1-10) with feedback per turn switched on or off.
func SimulationStartPrompt(difficulty int, feedback bool) string {
	mode := "OFF"
	if feedback {
		mode = "ON"
	}
	params := fmt.Sprintf("difficulty: %d, feedback_mode: '%s'", difficulty, mode)
	return StagePrompt(CommandStartSimulation,
		Fragment{Label: "interview parameters", Text: params})
}

// SimulationTurnPrompt continues a mock interview: the transcript so
// far, then the candidate's latest answer.
func SimulationTurnPrompt(transcript []session.Turn, latestInput string) string {
	var b strings.Builder
	if len(transcript) > 0 {
		fmt.Fprintf(&b, "[interview so far]\n%s\n\n", renderTranscript(transcript))
	}
	fmt.Fprintf(&b, "[candidate answer]\n%s\n\nContinue the interview.", latestInput)
	return b.String()
}

// FinalReportPrompt asks for the evaluation of a finished interview.
func FinalReportPrompt(transcript []session.Turn) string {
	return StagePrompt(CommandFinalReport,
		Fragment{Label: "interview transcript", Text: renderTranscript(transcript)})
}

func renderTranscript(transcript []session.Turn) string {
	lines := make([]string, 0, len(transcript))
	for _, turn := range transcript {
		speaker := "Candidate"
		if turn.Role == session.RoleAssistant {
			speaker = "Interviewer"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, turn.Content))
	}
	return strings.Join(lines, "\n")
}
