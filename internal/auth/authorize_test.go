package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"attendtrack/internal/apperr"
	"attendtrack/internal/model"
)

func TestAuthorize(t *testing.T) {
	member := &model.User{ID: "m", Role: model.RoleMember}
	admin := &model.User{ID: "a", Role: model.RoleAdmin}
	unknown := &model.User{ID: "x", Role: "guest"}

	tests := []struct {
		name     string
		user     *model.User
		required model.Role
		kind     apperr.Kind
		ok       bool
	}{
		{"member for member", member, model.RoleMember, 0, true},
		{"admin for member", admin, model.RoleMember, 0, true},
		{"admin for admin", admin, model.RoleAdmin, 0, true},
		{"member for admin", member, model.RoleAdmin, apperr.Forbidden, false},
		{"unknown role", unknown, model.RoleMember, apperr.Forbidden, false},
		{"anonymous", nil, model.RoleMember, apperr.Unauthorized, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.user, tt.required)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperr.Is(err, tt.kind), "got %v", err)
		})
	}
}
