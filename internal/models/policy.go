package models

// VisibilityScope is how much of the report set a role can see.
type VisibilityScope string

const (
	ScopeOwn    VisibilityScope = "own"
	ScopeCampus VisibilityScope = "campus"
	ScopeAll    VisibilityScope = "all"
)

// visibilityPolicy is the single role → scope table. Roles missing from it see only their own
// reports.
var visibilityPolicy = map[UserRole]VisibilityScope{
	RoleLecturer:       ScopeOwn,
	RoleSubjectHead:    ScopeCampus,
	RoleStudentAffairs: ScopeCampus,
	RoleDepartmentHead: ScopeAll,
	RoleHeadOffice:     ScopeAll,
}

// VisibilityFor returns the scope granted to role.
func VisibilityFor(role UserRole) VisibilityScope {
	if scope, ok := visibilityPolicy[role]; ok {
		return scope
	}
	return ScopeOwn
}

// ReportFilter returns the store filter implementing the actor's visibility.
func (a Actor) ReportFilter() ReportFilter {
	switch VisibilityFor(a.Role) {
	case ScopeAll:
		return ReportFilter{}
	case ScopeCampus:
		return ReportFilter{Campus: a.Campus}
	default:
		return ReportFilter{LecturerID: a.UserID}
	}
}

// CanSee reports whether r falls inside the actor's visibility.
func (a Actor) CanSee(r Report) bool {
	switch VisibilityFor(a.Role) {
	case ScopeAll:
		return true
	case ScopeCampus:
		return r.Campus == a.Campus
	default:
		return r.LecturerID == a.UserID
	}
}

// NotificationCampus is the campus filter used for the actor's notification feed; org-wide
// roles get the empty filter and see every campus.
func (a Actor) NotificationCampus() CampusCode {
	if VisibilityFor(a.Role) == ScopeAll {
		return ""
	}
	return a.Campus
}
