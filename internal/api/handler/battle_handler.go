package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"code_arena/internal/api/middleware"
	"code_arena/internal/app/service"
	"code_arena/internal/common"
	"code_arena/internal/domain/model"
)

type BattleHandler struct {
	battleService *service.BattleService
}

func NewBattleHandler(battleService *service.BattleService) *BattleHandler {
	return &BattleHandler{battleService: battleService}
}

func (h *BattleHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.createBattle)
	r.Get("/{battleID}", h.getBattle)
	r.Get("/{battleID}/leaderboard", h.getLeaderboard)
	r.With(middleware.AdminOnly).Delete("/{battleID}/cache", h.evictBattle)
}

func (h *BattleHandler) createBattle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req service.CreateBattleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	battle, err := h.battleService.CreateBattle(r.Context(), userID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, battle)
}

func (h *BattleHandler) getBattle(w http.ResponseWriter, r *http.Request) {
	battleID := chi.URLParam(r, "battleID")
	battle, err := h.battleService.GetBattle(r.Context(), battleID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, battle)
}

func (h *BattleHandler) evictBattle(w http.ResponseWriter, r *http.Request) {
	battleID := chi.URLParam(r, "battleID")
	if err := h.battleService.EvictBattle(r.Context(), battleID); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "evicted"})
}

func (h *BattleHandler) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	battleID := chi.URLParam(r, "battleID")
	entries, err := h.battleService.GetLeaderboard(r.Context(), battleID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}
