package http

import (
	"net/http"
	"strconv"

	"finsync/internal/domain/household"
)

type HouseholdHandler struct {
	householdService *household.Service
}

func NewHouseholdHandler(householdService *household.Service) *HouseholdHandler {
	return &HouseholdHandler{householdService: householdService}
}

type CreateHouseholdRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

type LinkAccountRequest struct {
	AccountID int64 `json:"account_id" validate:"required,gt=0"`
}

// HandleHouseholds lists (GET) or creates (POST) households of the current user
func (h *HouseholdHandler) HandleHouseholds(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		households, err := h.householdService.List(r.Context(), userID)
		if err != nil {
			writeError(w, err, "listing households")
			return
		}
		if households == nil {
			households = []*household.Household{}
		}
		writeJSON(w, http.StatusOK, households)
	case http.MethodPost:
		var req CreateHouseholdRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		hh, err := h.householdService.Create(r.Context(), userID, req.Name)
		if err != nil {
			writeError(w, err, "creating household")
			return
		}
		writeJSON(w, http.StatusCreated, hh)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleHouseholdByID returns one household the user belongs to
func (h *HouseholdHandler) HandleHouseholdByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	householdID, ok := parseID(w, r)
	if !ok {
		return
	}

	hh, err := h.householdService.Get(r.Context(), userID, householdID)
	if err != nil {
		writeError(w, err, "getting household")
		return
	}

	writeJSON(w, http.StatusOK, hh)
}

// HandleLinkAccount shares one of the user's accounts with a household
func (h *HouseholdHandler) HandleLinkAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	householdID, ok := parseID(w, r)
	if !ok {
		return
	}

	var req LinkAccountRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	hh, err := h.householdService.LinkAccount(r.Context(), userID, householdID, req.AccountID)
	if err != nil {
		writeError(w, err, "linking account to household")
		return
	}

	writeJSON(w, http.StatusOK, hh)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
