package http

import (
	"net/http"
	"strconv"

	"finsync/internal/domain/account"
)

type AccountHandler struct {
	accountService *account.Service
}

func NewAccountHandler(accountService *account.Service) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

type UpdateAccountRequest struct {
	// empty clears the nickname
	Nickname *string `json:"nickname" validate:"required"`
}

// HandleAccountByID handles operations on a specific account (GET and PATCH)
func (h *AccountHandler) HandleAccountByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accountID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || accountID <= 0 {
		http.Error(w, "Invalid account ID", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleGetAccount(w, r, userID, accountID)
	case http.MethodPatch:
		h.handleUpdateAccount(w, r, userID, accountID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AccountHandler) handleGetAccount(w http.ResponseWriter, r *http.Request, userID, accountID int64) {
	acc, err := h.accountService.GetAccount(r.Context(), accountID, userID)
	if err != nil {
		writeError(w, err, "getting account")
		return
	}

	writeJSON(w, http.StatusOK, acc)
}

func (h *AccountHandler) handleUpdateAccount(w http.ResponseWriter, r *http.Request, userID, accountID int64) {
	var req UpdateAccountRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	acc, err := h.accountService.UpdateNickname(r.Context(), accountID, userID, *req.Nickname)
	if err != nil {
		writeError(w, err, "updating account")
		return
	}

	writeJSON(w, http.StatusOK, acc)
}
