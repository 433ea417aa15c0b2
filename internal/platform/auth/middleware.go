package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/rudraksha-store/api/internal/domain"
	"github.com/rudraksha-store/api/internal/platform/httpx"
	"github.com/rudraksha-store/api/internal/platform/requestctx"
)

const (
	defaultAdminClaim    = "admin"
	defaultVerifyTimeout = 5 * time.Second
)

// GuestIDHeader carries the guest session identifier. Requests without a
// verified token may present one; the resolved id is echoed back on the
// response so clients can persist it.
const GuestIDHeader = "X-Guest-Id"

// TokenVerifier verifies Firebase ID tokens.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

type adminKeyType struct{}

var adminContextKey adminKeyType

// Authenticator wires Firebase token verification into HTTP middleware.
type Authenticator struct {
	verifier   TokenVerifier
	adminClaim string
	timeout    time.Duration
	clock      func() time.Time
}

// Option customises Authenticator behaviour.
type Option func(*Authenticator)

// WithAdminClaim overrides the custom claim consulted for back-office access.
func WithAdminClaim(claim string) Option {
	return func(a *Authenticator) {
		claim = strings.TrimSpace(claim)
		if claim != "" {
			a.adminClaim = claim
		}
	}
}

// WithVerificationTimeout sets the timeout used when verifying tokens.
func WithVerificationTimeout(d time.Duration) Option {
	return func(a *Authenticator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithClock overrides the time source used for guest identifier generation.
func WithClock(clock func() time.Time) Option {
	return func(a *Authenticator) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// NewAuthenticator constructs an Authenticator for middleware composition.
func NewAuthenticator(verifier TokenVerifier, opts ...Option) *Authenticator {
	a := &Authenticator{
		verifier:   verifier,
		adminClaim: defaultAdminClaim,
		timeout:    defaultVerifyTimeout,
		clock:      time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	return a
}

// ResolveIdentity derives the canonical identity for every request and stores it
// in the request context. Verification failures do not reject the request; the
// identity simply stays unauthenticated so downstream guards can decide. Requests
// that cannot be verified fall back to a guest identity: a valid client-supplied
// GuestIDHeader value is adopted, otherwise a fresh guest id is minted. Either
// way the resolved guest id is echoed on the response header.
func (a *Authenticator) ResolveIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		identifier, _ := requestctx.Identity(ctx)
		tokenStr, ok := extractBearerToken(r.Header.Get("Authorization"))
		if ok && a != nil && a.verifier != nil {
			verifyCtx, cancel := a.contextWithTimeout(ctx)
			token, err := a.verifier.VerifyIDToken(verifyCtx, tokenStr)
			if cancel != nil {
				cancel()
			}
			if err == nil && token != nil {
				identifier = IdentifierFromClaims(token.Claims)
				if identifier.IsAuthenticated && claimAsBool(token.Claims, a.adminClaim) {
					ctx = context.WithValue(ctx, adminContextKey, true)
				}
			}
		}

		if strings.TrimSpace(identifier.UserID) == "" {
			identifier = a.guestIdentifier(r.Header.Get(GuestIDHeader))
			w.Header().Set(GuestIDHeader, identifier.UserID)
		}

		ctx = requestctx.WithIdentity(ctx, identifier)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// guestIdentifier adopts a well-formed client-supplied guest id or mints a new one.
func (a *Authenticator) guestIdentifier(supplied string) domain.UserIdentifier {
	supplied = strings.TrimSpace(supplied)
	if strings.HasPrefix(supplied, guestIDPrefix) && IsValidUserID(supplied) {
		return domain.UserIdentifier{UserID: supplied}
	}
	clock := time.Now
	if a != nil && a.clock != nil {
		clock = a.clock
	}
	return GuestIdentifier("", clock)
}

// RequireAuthenticated rejects requests whose identity did not resolve to a verified phone number.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identifier, _ := requestctx.Identity(r.Context())
		if !identifier.IsAuthenticated {
			httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "sign in required", http.StatusUnauthorized))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests whose token does not carry the admin claim.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			httpx.WriteError(r.Context(), w, httpx.NewError("forbidden", "admin access required", http.StatusForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IsAdmin reports whether the request context carries a verified admin identity.
func IsAdmin(ctx context.Context) bool {
	admin, _ := ctx.Value(adminContextKey).(bool)
	return admin
}

func (a *Authenticator) contextWithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a == nil || a.timeout <= 0 {
		return ctx, nil
	}
	return context.WithTimeout(ctx, a.timeout)
}

func claimAsBool(claims map[string]interface{}, key string) bool {
	raw, ok := claims[key]
	if !ok {
		return false
	}
	value, ok := raw.(bool)
	return ok && value
}

func extractBearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", false
	}

	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}
