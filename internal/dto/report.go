package dto

import "github.com/HungtdFPI/TaskforceAF/internal/models"

// CreateReportRequest is the payload for POST /reports.
type CreateReportRequest struct {
	StudentCode    string             `json:"student_code" validate:"required,max=32"`
	StudentName    string             `json:"student_name" validate:"required,max=128"`
	ClassName      string             `json:"class_name" validate:"required,max=64"`
	Subject        string             `json:"subject" validate:"required,max=128"`
	Campus         models.CampusCode  `json:"campus" validate:"omitempty,campus"`
	Warn10         bool               `json:"warn_10"`
	Warn1517       bool               `json:"warn_15_17"`
	Warn20         bool               `json:"warn_20"`
	Banned         bool               `json:"banned"`
	StatusDetail   string             `json:"status_detail" validate:"max=2000"`
	TeacherNote    string             `json:"teacher_note" validate:"max=2000"`
	StudyStatus    models.StudyStatus `json:"study_status" validate:"omitempty,study_status"`
	AssessmentDate string             `json:"assessment_date" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateReportRequest is the payload for PUT /reports/:id. Campus, owner, lifecycle status and
// student-affairs fields are not editable through it.
type UpdateReportRequest struct {
	StudentCode  string             `json:"student_code" validate:"required,max=32"`
	StudentName  string             `json:"student_name" validate:"required,max=128"`
	ClassName    string             `json:"class_name" validate:"required,max=64"`
	Subject      string             `json:"subject" validate:"required,max=128"`
	Warn10       bool               `json:"warn_10"`
	Warn1517     bool               `json:"warn_15_17"`
	Warn20       bool               `json:"warn_20"`
	Banned       bool               `json:"banned"`
	StatusDetail string             `json:"status_detail" validate:"max=2000"`
	TeacherNote  string             `json:"teacher_note" validate:"max=2000"`
	StudyStatus  models.StudyStatus `json:"study_status" validate:"omitempty,study_status"`
}

// NewCycleRequest records a new assessment cycle. AssessmentDate uses yyyy-MM-dd and defaults
// to today.
type NewCycleRequest struct {
	AssessmentDate string `json:"assessment_date" validate:"omitempty,datetime=2006-01-02"`
	StatusDetail   string `json:"status_detail" validate:"max=2000"`
	TeacherNote    string `json:"teacher_note" validate:"max=2000"`
	Warn10         bool   `json:"warn_10"`
	Warn1517       bool   `json:"warn_15_17"`
	Warn20         bool   `json:"warn_20"`
	Banned         bool   `json:"banned"`
}

// AppendNoteRequest adds an entry to a per-field note thread.
type AppendNoteRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// CareRequest is the student-affairs care action.
type CareRequest struct {
	Status models.DvsvStatus `json:"status" validate:"required,oneof=pending success failed"`
	Note   string            `json:"note" validate:"max=2000"`
}

// SubmitReportsRequest submits a batch of drafts. An empty list submits every own draft.
type SubmitReportsRequest struct {
	IDs []string `json:"ids"`
}

// RejectReportRequest returns a submitted report to its lecturer.
type RejectReportRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// ReportQuery mirrors supported listing filters.
type ReportQuery struct {
	Status    []models.ReportStatus
	ClassName string
	Search    string
	Period    models.CreatedPeriod
}

// BatchResult reports which ids a bulk transition moved and which it skipped.
type BatchResult struct {
	Updated []string `json:"updated"`
	Skipped []string `json:"skipped"`
}

// TransitionResult is the outcome of a single-record transition. Applied is false when the
// report was not in the required source state; that is a no-op, not a failure.
type TransitionResult struct {
	Report  *models.Report `json:"report"`
	Applied bool           `json:"applied"`
	Code    string         `json:"code,omitempty"`
	Reason  string         `json:"reason,omitempty"`
}
