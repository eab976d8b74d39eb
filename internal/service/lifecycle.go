package service

import "github.com/HungtdFPI/TaskforceAF/internal/models"

// TransitionName identifies a lifecycle transition.
type TransitionName string

const (
	TransitionSubmit   TransitionName = "submit"
	TransitionApprove  TransitionName = "approve"
	TransitionReject   TransitionName = "reject"
	TransitionFinalize TransitionName = "finalize"
)

// TransitionScope is the set of reports a transition acts on.
type TransitionScope string

const (
	// ScopeOwnBatch acts on a batch of the caller's own reports.
	ScopeOwnBatch TransitionScope = "own_batch"
	// ScopeSingle acts on one report inside the caller's visibility.
	ScopeSingle TransitionScope = "single"
	// ScopeSystem acts on every report in the source state.
	ScopeSystem TransitionScope = "system"
)

// Transition is one row of the lifecycle table.
type Transition struct {
	Name         TransitionName
	From         models.ReportStatus
	To           models.ReportStatus
	Roles        []models.UserRole
	Scope        TransitionScope
	Notification models.NotificationType
	Title        string
}

// Allows reports whether role may perform the transition.
func (t Transition) Allows(role models.UserRole) bool {
	for _, r := range t.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// lifecycle is the only place report status moves are defined. Nothing leaves finalized.
var lifecycle = map[TransitionName]Transition{
	TransitionSubmit: {
		Name:         TransitionSubmit,
		From:         models.ReportStatusDraft,
		To:           models.ReportStatusSubmitted,
		Roles:        []models.UserRole{models.RoleLecturer},
		Scope:        ScopeOwnBatch,
		Notification: models.NotificationReportUpdated,
		Title:        "Report updated",
	},
	TransitionApprove: {
		Name:         TransitionApprove,
		From:         models.ReportStatusSubmitted,
		To:           models.ReportStatusApproved,
		Roles:        []models.UserRole{models.RoleSubjectHead, models.RoleDepartmentHead},
		Scope:        ScopeSingle,
		Notification: models.NotificationReportApproved,
		Title:        "Report approved",
	},
	TransitionReject: {
		Name:         TransitionReject,
		From:         models.ReportStatusSubmitted,
		To:           models.ReportStatusDraft,
		Roles:        []models.UserRole{models.RoleSubjectHead, models.RoleDepartmentHead},
		Scope:        ScopeSingle,
		Notification: models.NotificationReportRejected,
		Title:        "Report rejected",
	},
	TransitionFinalize: {
		Name:         TransitionFinalize,
		From:         models.ReportStatusApproved,
		To:           models.ReportStatusFinalized,
		Roles:        []models.UserRole{models.RoleDepartmentHead, models.RoleHeadOffice},
		Scope:        ScopeSystem,
		Notification: models.NotificationReportUpdated,
		Title:        "Report updated",
	},
}

// TransitionFor looks up a transition by name.
func TransitionFor(name TransitionName) (Transition, bool) {
	t, ok := lifecycle[name]
	return t, ok
}

// Transitions returns the lifecycle table in a stable order.
func Transitions() []Transition {
	return []Transition{
		lifecycle[TransitionSubmit],
		lifecycle[TransitionApprove],
		lifecycle[TransitionReject],
		lifecycle[TransitionFinalize],
	}
}
