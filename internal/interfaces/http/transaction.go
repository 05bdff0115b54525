package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"finsync/internal/domain/transaction"
)

type TransactionHandler struct {
	transactionService *transaction.Service
}

func NewTransactionHandler(transactionService *transaction.Service) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// HandleListTransactions returns the user's stored transactions, newest first.
// Optional query parameters: account_id, account_ids (comma-separated),
// start_date, end_date, limit, offset. A bare end_date covers that whole day.
func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	params := transaction.ListParams{UserID: userID}
	q := r.URL.Query()

	for name, dst := range map[string]*int{"limit": &params.Limit, "offset": &params.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid "+name, http.StatusBadRequest)
			return
		}
		*dst = n
	}

	for _, name := range []string{"account_id", "account_ids"} {
		for _, raw := range strings.Split(q.Get(name), ",") {
			if raw = strings.TrimSpace(raw); raw == "" {
				continue
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				http.Error(w, "Invalid "+name, http.StatusBadRequest)
				return
			}
			params.AccountIDs = append(params.AccountIDs, id)
		}
	}

	if raw := q.Get("start_date"); raw != "" {
		start, err := transaction.NormalizePostedDate(raw)
		if err != nil {
			writeError(w, err, "parsing start_date")
			return
		}
		params.StartDate = &start
	}
	if raw := q.Get("end_date"); raw != "" {
		end, err := transaction.NormalizePostedDate(raw)
		if err != nil {
			writeError(w, err, "parsing end_date")
			return
		}
		if len(strings.TrimSpace(raw)) == len(time.DateOnly) {
			end = end.Add(24*time.Hour - time.Microsecond)
		}
		params.EndDate = &end
	}

	txns, err := h.transactionService.ListTransactions(r.Context(), params)
	if err != nil {
		writeError(w, err, "listing transactions")
		return
	}
	if txns == nil {
		txns = []*transaction.Transaction{}
	}

	writeJSON(w, http.StatusOK, txns)
}
