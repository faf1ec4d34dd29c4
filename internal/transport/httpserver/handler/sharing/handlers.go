package sharing

import (
	"context"
	"net/http"

	childdomain "child-growth-go/internal/domain/child"
	sharingdomain "child-growth-go/internal/domain/sharing"
	commonhandler "child-growth-go/internal/transport/httpserver/handler/common"
	"child-growth-go/pkg/logger"
)

type Gate interface {
	Verify(ctx context.Context, token, code string) (*childdomain.Snapshot, error)
	CreateLink(ctx context.Context, input sharingdomain.CreateLinkInput) (*sharingdomain.ShareLink, error)
	ListLinks(ctx context.Context, userID, childID string) ([]sharingdomain.ShareLink, error)
	RevokeLink(ctx context.Context, userID, linkID string) (*sharingdomain.ShareLink, error)
	DeleteLink(ctx context.Context, userID, linkID string) error
	ShareURL(token string) string
}

type Handlers struct {
	Sharing Gate
	log     logger.Logger
}

func New(sharing Gate, log logger.Logger) *Handlers {
	return &Handlers{
		Sharing: sharing,
		log:     log,
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	commonhandler.WriteError(w, status, code, message)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	commonhandler.WriteJSON(w, status, payload)
}

func decodeAndValidate(r *http.Request, dst interface{}) error {
	return commonhandler.DecodeAndValidate(r, dst)
}
