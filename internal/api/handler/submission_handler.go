package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"code_arena/internal/api/middleware"
	"code_arena/internal/app/service"
	"code_arena/internal/common"
	"code_arena/internal/judge"
)

type SubmissionHandler struct {
	submissionService *service.SubmissionService
}

func NewSubmissionHandler(submissionService *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/{battleID}/submissions", h.submit)
	r.Delete("/{battleID}/submissions", h.cancel)
}

// RegisterMetaRoutes holds the battle-independent lookups.
func (h *SubmissionHandler) RegisterMetaRoutes(r chi.Router) {
	r.Get("/languages", h.languages)
}

// submit accepts a submission and returns 202 immediately; progress and the
// verdict arrive on the battle's event stream.
func (h *SubmissionHandler) submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	battleID := chi.URLParam(r, "battleID")

	var req service.SubmitCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	submissionID, err := h.submissionService.Submit(r.Context(), battleID, userID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusAccepted, map[string]string{"submission_id": submissionID})
}

func (h *SubmissionHandler) cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	battleID := chi.URLParam(r, "battleID")

	h.submissionService.Cancel(battleID, userID)
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *SubmissionHandler) languages(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, map[string][]string{"languages": judge.SupportedLanguages()})
}
