package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lanhub/partyhub/middleware"
	"github.com/lanhub/partyhub/models"
	"github.com/lanhub/partyhub/services"
)

type TournamentHandler struct {
	tournamentService *services.TournamentService
	bracketService    *services.BracketService
	matchService      *services.MatchService
}

func NewTournamentHandler(
	tournamentService *services.TournamentService,
	bracketService *services.BracketService,
	matchService *services.MatchService,
) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: tournamentService,
		bracketService:    bracketService,
		matchService:      matchService,
	}
}

func getIDFromURL(r *http.Request, paramName string) (int, error) {
	idStr := chi.URLParam(r, paramName)
	if idStr == "" {
		return 0, fmt.Errorf("missing %s in URL path", paramName)
	}
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s format: %q", paramName, idStr)
	}
	return id, nil
}

type createTournamentRequest struct {
	PartyID           int     `json:"party_id"`
	Name              string  `json:"name"`
	Game              *string `json:"game"`
	Description       *string `json:"description"`
	Ruleset           *string `json:"ruleset"`
	ContestantKind    *string `json:"contestant_kind"`
	Mode              *string `json:"mode"`
	MinPlayers        *int    `json:"min_players"`
	MaxPlayers        *int    `json:"max_players"`
	MinTeams          *int    `json:"min_teams"`
	MaxTeams          *int    `json:"max_teams"`
	MinPlayersPerTeam *int    `json:"min_players_per_team"`
	MaxPlayersPerTeam *int    `json:"max_players_per_team"`
}

func (h *TournamentHandler) CreateTournamentHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var req createTournamentRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament := &models.Tournament{
		PartyID:           req.PartyID,
		Name:              req.Name,
		Game:              req.Game,
		Description:       req.Description,
		Ruleset:           req.Ruleset,
		MinPlayers:        req.MinPlayers,
		MaxPlayers:        req.MaxPlayers,
		MinTeams:          req.MinTeams,
		MaxTeams:          req.MaxTeams,
		MinPlayersPerTeam: req.MinPlayersPerTeam,
		MaxPlayersPerTeam: req.MaxPlayersPerTeam,
	}
	if req.ContestantKind != nil {
		kind := models.ContestantKind(*req.ContestantKind)
		tournament.ContestantKind = &kind
	}
	if req.Mode != nil {
		tournament.Mode = models.TournamentMode(*req.Mode)
	}

	if err := h.tournamentService.Create(r.Context(), tournament, &userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) GetTournamentHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	tournament, err := h.tournamentService.GetByID(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) ListPartyTournamentsHandler(w http.ResponseWriter, r *http.Request) {
	partyID, err := getIDFromURL(r, "partyID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	tournaments, err := h.tournamentService.ListByParty(r.Context(), partyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) PartyStatsHandler(w http.ResponseWriter, r *http.Request) {
	partyID, err := getIDFromURL(r, "partyID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stats, err := h.tournamentService.GetPartyStats(r.Context(), partyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"stats": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type updateTournamentRequest struct {
	Name              *string `json:"name"`
	Game              *string `json:"game"`
	Description       *string `json:"description"`
	Ruleset           *string `json:"ruleset"`
	MinPlayers        *int    `json:"min_players"`
	MaxPlayers        *int    `json:"max_players"`
	MinTeams          *int    `json:"min_teams"`
	MaxTeams          *int    `json:"max_teams"`
	MinPlayersPerTeam *int    `json:"min_players_per_team"`
	MaxPlayersPerTeam *int    `json:"max_players_per_team"`
}

func (h *TournamentHandler) UpdateTournamentHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req updateTournamentRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetByID(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if req.Name != nil {
		tournament.Name = *req.Name
	}
	if req.Game != nil {
		tournament.Game = req.Game
	}
	if req.Description != nil {
		tournament.Description = req.Description
	}
	if req.Ruleset != nil {
		tournament.Ruleset = req.Ruleset
	}
	if req.MinPlayers != nil {
		tournament.MinPlayers = req.MinPlayers
	}
	if req.MaxPlayers != nil {
		tournament.MaxPlayers = req.MaxPlayers
	}
	if req.MinTeams != nil {
		tournament.MinTeams = req.MinTeams
	}
	if req.MaxTeams != nil {
		tournament.MaxTeams = req.MaxTeams
	}
	if req.MinPlayersPerTeam != nil {
		tournament.MinPlayersPerTeam = req.MinPlayersPerTeam
	}
	if req.MaxPlayersPerTeam != nil {
		tournament.MaxPlayersPerTeam = req.MaxPlayersPerTeam
	}

	if err := h.tournamentService.Update(r.Context(), tournament, &userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

func (h *TournamentHandler) ChangeStatusHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var req changeStatusRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tournamentService.ChangeStatus(r.Context(), tournamentID, models.TournamentStatus(req.Status), &userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": req.Status}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) DeleteTournamentHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.tournamentService.Delete(r.Context(), tournamentID, &userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TournamentHandler) GenerateBracketHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	force := r.URL.Query().Get("force") == "true"

	matchCount, err := h.bracketService.GenerateBracket(r.Context(), tournamentID, force, &userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match_count": matchCount}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) GetBracketHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	tournament, err := h.matchService.GetBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) UploadImageHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.GetUserIDFromContext(r.Context()); err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("missing image file: %w", err))
		return
	}
	defer file.Close()

	url, err := h.tournamentService.UploadImage(r.Context(), tournamentID, header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"image_url": url}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
