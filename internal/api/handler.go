// Package api exposes the attendance and user services over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"attendtrack/internal/apperr"
	"attendtrack/internal/attendance"
	"attendtrack/internal/auth"
	"attendtrack/internal/respond"
	"attendtrack/internal/users"
)

// ReadinessCheck reports whether one dependency can serve traffic.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Handler holds the HTTP endpoints.
type Handler struct {
	attendance *attendance.Service
	users      *users.Service
	auth       *auth.Authenticator
	log        *zap.Logger
	ready      []ReadinessCheck
}

// NewHandler creates the endpoint set.
func NewHandler(att *attendance.Service, us *users.Service, authn *auth.Authenticator, log *zap.Logger, ready ...ReadinessCheck) *Handler {
	return &Handler{attendance: att, users: us, auth: authn, log: log, ready: ready}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Server is running successfully!"})
}

// Ready reports 503 when any dependency check fails. Failure detail is logged, not returned.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}
	for _, rc := range h.ready {
		if err := rc.Check(ctx); err != nil {
			h.log.Warn("readiness check failed", zap.String("check", rc.Name), zap.Error(err))
			checks[rc.Name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[rc.Name] = "ok"
	}
	c.JSON(status, gin.H{"ready": status == http.StatusOK, "checks": checks})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a member account.
func (h *Handler) Register(c *gin.Context) {
	var req users.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, bindError(err))
		return
	}
	u, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": u})
}

// Login exchanges credentials for an access token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, bindError(err))
		return
	}
	sess, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if apperr.Is(err, apperr.Unauthorized) {
			h.log.Info("login rejected", zap.String("username", req.Username), zap.String("ip", c.ClientIP()))
		}
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "Login successful",
		"token":     sess.Token.Value,
		"expiresAt": sess.Token.ExpiresAt.UTC(),
		"user":      sess.User,
	})
}

// Logout revokes the presented token. Without a revocation store the token stays valid
// until it expires, and the response says so.
func (h *Handler) Logout(c *gin.Context) {
	if !h.auth.Revocable() {
		c.JSON(http.StatusOK, gin.H{"message": "Logged out; token remains valid until it expires"})
		return
	}
	if err := h.auth.Revoke(c); err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

type markRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// MarkAttendance records today's status for the caller.
func (h *Handler) MarkAttendance(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, bindError(err))
		return
	}
	rec, err := h.attendance.Mark(c.Request.Context(), auth.CurrentUser(c).ID, req.Status, req.Notes)
	if err != nil {
		var already *attendance.AlreadyMarkedError
		if errors.As(err, &already) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"message":    already.Error(),
				"attendance": already.Existing,
			})
			return
		}
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Attendance marked successfully", "attendance": rec})
}

// ListAttendance returns the caller's history.
func (h *Handler) ListAttendance(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respond.Error(c, bindError(err))
		return
	}
	page := q.page(attendance.DefaultPageSize)
	hist, err := h.attendance.List(c.Request.Context(), auth.CurrentUser(c).ID, page)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, hist)
}

// Today reports whether the caller has marked the current day.
func (h *Handler) Today(c *gin.Context) {
	status, err := h.attendance.Today(c.Request.Context(), auth.CurrentUser(c).ID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// UserAttendance returns another user's history for administrators.
func (h *Handler) UserAttendance(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respond.Error(c, bindError(err))
		return
	}
	page := q.page(attendance.DefaultPageSize)
	hist, err := h.attendance.ListForUser(c.Request.Context(), auth.CurrentUser(c), c.Param("userId"), page)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, hist)
}

// ListUsers returns members with their statistics for administrators.
func (h *Handler) ListUsers(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respond.Error(c, bindError(err))
		return
	}
	page := q.page(users.DefaultPageSize)
	listing, err := h.users.ListMembers(c.Request.Context(), auth.CurrentUser(c), page)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// Profile returns the caller's account.
func (h *Handler) Profile(c *gin.Context) {
	u, err := h.users.Profile(c.Request.Context(), auth.CurrentUser(c).ID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
