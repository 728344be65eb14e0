package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"attendtrack/internal/apperr"
	"attendtrack/internal/model"
	"attendtrack/internal/respond"
)

const (
	userKey   = "auth.user"
	claimsKey = "auth.claims"
)

// UserLookup resolves token subjects. It returns nil, nil for unknown ids.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// Authenticator resolves bearer tokens to users.
type Authenticator struct {
	tokens  *Manager
	users   UserLookup
	revoker Revoker
	log     *zap.Logger
}

// NewAuthenticator creates an authenticator. revoker may be nil to skip revocation checks.
func NewAuthenticator(tokens *Manager, users UserLookup, revoker Revoker, log *zap.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, revoker: revoker, log: log}
}

// Middleware enforces a valid bearer token whose subject is an existing user.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			respond.Message(c, http.StatusUnauthorized, "Access token required")
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := a.tokens.Parse(tokenStr)
		if err != nil {
			respond.Message(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := c.Request.Context()
		if a.revoker != nil {
			revoked, err := a.revoker.IsRevoked(ctx, claims.ID)
			switch {
			case err != nil:
				// Revocation store outage does not lock every user out.
				a.log.Warn("token revocation check failed", zap.String("jti", claims.ID), zap.Error(err))
			case revoked:
				respond.Message(c, http.StatusUnauthorized, "Token has been revoked")
				return
			}
		}

		user, err := a.users.FindByID(ctx, claims.Subject)
		if err != nil {
			respond.Error(c, err)
			return
		}
		if user == nil {
			respond.Message(c, http.StatusUnauthorized, "Invalid token: user not found")
			return
		}

		c.Set(claimsKey, claims)
		c.Set(userKey, user)
		c.Next()
	}
}

// Revocable reports whether logged-out tokens can be invalidated before they expire.
func (a *Authenticator) Revocable() bool {
	return a.revoker != nil
}

// Revoke invalidates the token on the current request until it expires.
func (a *Authenticator) Revoke(c *gin.Context) error {
	if a.revoker == nil {
		return apperr.New(apperr.Internal, "token revocation is not configured")
	}
	claims, ok := CurrentClaims(c)
	if !ok {
		return apperr.New(apperr.Unauthorized, "Access token required")
	}
	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	return a.revoker.Revoke(c.Request.Context(), claims.ID, ttl)
}

// RequireRole rejects authenticated users whose role does not meet role.
func RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := Authorize(CurrentUser(c), role); err != nil {
			respond.Error(c, err)
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user resolved by the authenticator, or nil.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*model.User)
	return u
}

// CurrentClaims returns the verified token claims of the request.
func CurrentClaims(c *gin.Context) (Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return Claims{}, false
	}
	claims, ok := v.(Claims)
	return claims, ok
}
