package http

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"finsync/internal/domain/account"
	"finsync/internal/domain/connection"
	"finsync/internal/domain/itemsync"
)

// ItemSyncer runs a full sync of one linked item.
type ItemSyncer interface {
	SyncItem(ctx context.Context, itemID string) (*itemsync.Result, error)
}

// PlaidHandler serves linking, connection management and on-demand sync.
type PlaidHandler struct {
	connections *connection.Service
	accounts    *account.Service
	syncer      ItemSyncer
}

func NewPlaidHandler(connections *connection.Service, accounts *account.Service, syncer ItemSyncer) *PlaidHandler {
	return &PlaidHandler{
		connections: connections,
		accounts:    accounts,
		syncer:      syncer,
	}
}

type LinkTokenResponse struct {
	LinkToken string `json:"link_token"`
}

type ExchangeRequest struct {
	PublicToken string `json:"public_token" validate:"required,max=512"`
}

// HandleCreateLinkToken creates a link session for the current user.
func (h *PlaidHandler) HandleCreateLinkToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := h.connections.CreateLinkSession(r.Context(), userID)
	if err != nil {
		writeError(w, err, "creating link token")
		return
	}

	writeJSON(w, http.StatusOK, LinkTokenResponse{LinkToken: token})
}

// HandleExchangePublicToken completes a link and stores the new connection.
func (h *PlaidHandler) HandleExchangePublicToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ExchangeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	linked, err := h.connections.ExchangePublicToken(r.Context(), userID, req.PublicToken)
	if err != nil {
		writeError(w, err, "exchanging public token")
		return
	}

	writeJSON(w, http.StatusCreated, linked)
}

// HandleListAccounts lists stored accounts, optionally for one connection.
func (h *PlaidHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var connectionID int64
	if raw := r.URL.Query().Get("connection_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "Invalid connection_id", http.StatusBadRequest)
			return
		}
		if err := h.connections.CheckOwner(r.Context(), userID, id); err != nil {
			writeError(w, err, "checking connection owner")
			return
		}
		connectionID = id
	}

	accounts, err := h.accounts.ListAccounts(r.Context(), userID, connectionID)
	if err != nil {
		writeError(w, err, "listing accounts")
		return
	}
	if accounts == nil {
		accounts = []*account.Account{}
	}

	writeJSON(w, http.StatusOK, accounts)
}

// HandleListConnections lists the user's linked items. Tokens and cursors
// are never part of the response.
func (h *PlaidHandler) HandleListConnections(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conns, err := h.connections.ListConnections(r.Context(), userID)
	if err != nil {
		writeError(w, err, "listing connections")
		return
	}
	if conns == nil {
		conns = []*connection.Connection{}
	}

	writeJSON(w, http.StatusOK, conns)
}

// HandleDeleteConnection removes a connection with its accounts and transactions.
func (h *PlaidHandler) HandleDeleteConnection(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	connectionID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || connectionID <= 0 {
		http.Error(w, "Invalid connection ID", http.StatusBadRequest)
		return
	}

	if err := h.connections.DeleteConnection(r.Context(), userID, connectionID); err != nil {
		writeError(w, err, "deleting connection")
		return
	}

	log.Printf("User %d removed connection %d", userID, connectionID)
	w.WriteHeader(http.StatusNoContent)
}

// HandleSyncItem drives a sync of one of the user's items to completion.
func (h *PlaidHandler) HandleSyncItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	itemID := r.PathValue("itemID")
	if itemID == "" {
		http.Error(w, "Item ID is required", http.StatusBadRequest)
		return
	}

	if err := h.connections.OwnsItem(r.Context(), userID, itemID); err != nil {
		writeError(w, err, "checking item owner")
		return
	}

	result, err := h.syncer.SyncItem(r.Context(), itemID)
	if err != nil {
		writeError(w, err, "syncing item "+itemID)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
