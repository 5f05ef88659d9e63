package users

import "companygrow/internal/domain/auth"

// FilterUserFields strips profile fields the viewer is not entitled to see.
// Admins and the profile owner see everything. Managers keep the work fields
// of other users but lose personal contact details. Everyone else gets the
// directory view only.
func FilterUserFields(u *User, viewer auth.UserContext, isSelf bool) {
	if viewer.RoleName == auth.RoleAdmin || isSelf {
		return
	}

	u.Phone = ""
	u.Address = nil
	u.EmergencyContact = nil
	u.LastLogin = nil

	if viewer.RoleName == auth.RoleManager {
		return
	}

	u.Experience = 0
	u.Skills = nil
}
