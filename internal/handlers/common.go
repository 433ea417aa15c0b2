package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rudraksha-store/api/internal/platform/httpx"
	"github.com/rudraksha-store/api/internal/platform/requestctx"
	"github.com/rudraksha-store/api/internal/repositories"

	domain "github.com/rudraksha-store/api/internal/domain"
)

const defaultBodyLimit = 64 * 1024

var (
	errEmptyBody    = errors.New("request body is required")
	errBodyTooLarge = errors.New("request body exceeds the allowed size")
)

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	if limit <= 0 {
		limit = defaultBodyLimit
	}
	reader := io.LimitReader(r.Body, limit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	code := "invalid_request"
	if errors.Is(err, errBodyTooLarge) {
		status = http.StatusRequestEntityTooLarge
		code = "payload_too_large"
	}
	httpx.WriteError(ctx, w, httpx.NewError(code, err.Error(), status))
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	httpx.WriteJSON(w, status, payload)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

// requestIdentity resolves the caller's identity. The boolean reports whether
// any usable identifier (verified phone or guest id) is present.
func requestIdentity(ctx context.Context) (domain.UserIdentifier, bool) {
	identity, ok := requestctx.Identity(ctx)
	if !ok || strings.TrimSpace(identity.UserID) == "" {
		return domain.UserIdentifier{}, false
	}
	return identity, true
}

func writeUnauthenticated(ctx context.Context, w http.ResponseWriter) {
	httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
}

// writeRepositoryError maps categorised persistence failures to HTTP statuses.
func writeRepositoryError(ctx context.Context, w http.ResponseWriter, err error, code string) {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			httpx.WriteError(ctx, w, httpx.NewError(code, "not found", http.StatusNotFound))
			return
		case repoErr.IsConflict():
			httpx.WriteError(ctx, w, httpx.NewError(code, "conflict", http.StatusConflict))
			return
		case repoErr.IsUnavailable():
			httpx.WriteError(ctx, w, httpx.NewError(code, "storage unavailable", http.StatusServiceUnavailable))
			return
		}
	}
	httpx.WriteError(ctx, w, httpx.NewError(code, err.Error(), http.StatusInternalServerError))
}
