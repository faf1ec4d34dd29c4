package common

import (
	"net/http"

	"child-growth-go/internal/transport/httpserver/middleware"
	"child-growth-go/pkg/logger"
)

type Handlers struct {
	log logger.Logger
}

func New(log logger.Logger) *Handlers {
	return &Handlers{log: log}
}

type authMeResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) AuthMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	WriteJSON(w, http.StatusOK, authMeResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
	})
}
