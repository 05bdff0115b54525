package http

import (
	"net/http"

	"finsync/internal/domain/user"
)

type UserHandler struct {
	userService *user.Service
}

func NewUserHandler(userService *user.Service) *UserHandler {
	return &UserHandler{userService: userService}
}

// HandleMe returns the local user resolved from the access token
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	u, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, err, "getting current user")
		return
	}

	writeJSON(w, http.StatusOK, u)
}
