package prep

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	apperrors "github.com/interviewprep-dev/interviewprep/pkg/prep/errors"
	"github.com/interviewprep-dev/interviewprep/pkg/prep/ingest"
)

// maxUploadBytes bounds the multipart form held in memory.
const maxUploadBytes = 32 << 20

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (a *App) handleSession(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	snap := a.Orchestrator.Session()
	a.mu.Unlock()
	writeJSON(w, http.StatusOK, snap)
}

func (a *App) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.writeError(w, apperrors.New(apperrors.ErrCodeValidation, "invalid multipart form", err))
		return
	}

	record, err := a.readPDFField(r, "student_record")
	if err != nil {
		a.writeError(w, err)
		return
	}
	statement, err := a.readPDFField(r, "personal_statement")
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.mu.Lock()
	report, err := a.Orchestrator.UploadDocuments(r.Context(), record, statement)
	a.mu.Unlock()
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"initial_report": report})
}

// readPDFField extracts the text of one uploaded PDF form field.
func (a *App) readPDFField(r *http.Request, field string) (string, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return "", apperrors.New(apperrors.ErrCodeValidation, "missing file field: "+field, err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", apperrors.New(apperrors.ErrCodeValidation, "failed to read file field: "+field, err)
	}
	return ingest.ExtractText(content)
}

func (a *App) handleAction(w http.ResponseWriter, r *http.Request) {
	var result string
	var err error

	a.mu.Lock()
	switch mux.Vars(r)["action"] {
	case "questions":
		result, err = a.Orchestrator.ExtractAdditionalQuestions(r.Context())
	case "strategy":
		result, err = a.Orchestrator.GenerateStrategyReport(r.Context())
	case "answers":
		result, err = a.Orchestrator.GenerateModelAnswers(r.Context())
	default:
		err = apperrors.New(apperrors.ErrCodeValidation,
			"unknown action, expected questions, strategy or answers", nil)
	}
	a.mu.Unlock()

	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": result})
}

func (a *App) handleSimulationStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Difficulty   int   `json:"difficulty"`
		FeedbackMode *bool `json:"feedback_mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, apperrors.New(apperrors.ErrCodeValidation, "invalid request body", err))
		return
	}
	if req.Difficulty == 0 {
		req.Difficulty = a.Config.Interview.DefaultDifficulty
	}
	feedback := a.Config.Interview.FeedbackEnabled()
	if req.FeedbackMode != nil {
		feedback = *req.FeedbackMode
	}

	a.mu.Lock()
	question, err := a.Orchestrator.StartSimulation(r.Context(), req.Difficulty, feedback)
	a.mu.Unlock()
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"question": question})
}

func (a *App) handleSimulationTurn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Input string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, apperrors.New(apperrors.ErrCodeValidation, "invalid request body", err))
		return
	}

	a.mu.Lock()
	reply, done, err := a.Orchestrator.SubmitTurn(r.Context(), req.Input)
	a.mu.Unlock()
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reply": reply, "done": done})
}

func (a *App) handleSimulationEnd(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	report, err := a.Orchestrator.EndSimulation(r.Context())
	a.mu.Unlock()
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"final_report": report})
}

func (a *App) handleRestart(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.Orchestrator.Restart()
	snap := a.Orchestrator.Session()
	a.mu.Unlock()
	writeJSON(w, http.StatusOK, snap)
}

func (a *App) writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	body := map[string]string{
		"code":  code,
		"error": err.Error(),
	}
	if remediation := apperrors.RemediationOf(err); remediation != "" {
		body["remediation"] = remediation
	}
	a.logger.Error("request failed", "code", code, "error", err)
	writeJSON(w, statusFor(code), body)
}

func statusFor(code string) int {
	switch code {
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeInvalidState:
		return http.StatusConflict
	case apperrors.ErrCodeCacheExpired:
		return http.StatusGone
	case apperrors.ErrCodeCacheCreate, apperrors.ErrCodeGeneration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
