package auth

import (
	"attendtrack/internal/apperr"
	"attendtrack/internal/model"
)

// rank orders the closed role set; a role satisfies every requirement at or below its rank.
var rank = map[model.Role]int{
	model.RoleMember: 1,
	model.RoleAdmin:  2,
}

// Authorize permits user when its role meets required.
func Authorize(user *model.User, required model.Role) error {
	if user == nil {
		return apperr.New(apperr.Unauthorized, "Access token required")
	}
	if !user.Role.Valid() || rank[user.Role] < rank[required] {
		if required == model.RoleAdmin {
			return apperr.New(apperr.Forbidden, "Admin access required")
		}
		return apperr.New(apperr.Forbidden, "Insufficient permissions")
	}
	return nil
}
