package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles issued by the identity provider.
type UserRole string

const (
	RoleLecturer       UserRole = "gv"
	RoleSubjectHead    UserRole = "cnbm"
	RoleDepartmentHead UserRole = "truong_nganh"
	RoleHeadOffice     UserRole = "ho"
	RoleStudentAffairs UserRole = "dvsv"
	RoleTrainingHead   UserRole = "tbdt"
	RoleGuest          UserRole = "guest"
)

// RoleNames maps roles to display names.
var RoleNames = map[UserRole]string{
	RoleLecturer:       "Giảng viên",
	RoleSubjectHead:    "Chủ nhiệm bộ môn",
	RoleDepartmentHead: "Trưởng ngành",
	RoleHeadOffice:     "Head Office",
	RoleStudentAffairs: "Dịch vụ sinh viên",
	RoleTrainingHead:   "Trưởng ban đào tạo",
	RoleGuest:          "Khách tham quan",
}

// Actor is the identity every operation runs as. It is supplied by the session provider and
// treated as opaque input.
type Actor struct {
	UserID      string     `json:"user_id"`
	Role        UserRole   `json:"role"`
	Campus      CampusCode `json:"campus"`
	DisplayName string     `json:"display_name"`
}

// Name returns a printable actor name.
func (a Actor) Name() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	if name, ok := RoleNames[a.Role]; ok {
		return name
	}
	return "User"
}

// HasRole reports whether the actor holds one of roles.
func (a Actor) HasRole(roles ...UserRole) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// JWTClaims represents the JWT payload issued by the identity provider.
type JWTClaims struct {
	UserID   string     `json:"user_id"`
	Role     UserRole   `json:"role"`
	Campus   CampusCode `json:"campus"`
	FullName string     `json:"full_name"`
	jwt.RegisteredClaims
}

// Actor converts verified claims into an Actor.
func (c *JWTClaims) Actor() Actor {
	if c == nil {
		return Actor{}
	}
	return Actor{UserID: c.UserID, Role: c.Role, Campus: c.Campus, DisplayName: c.FullName}
}
