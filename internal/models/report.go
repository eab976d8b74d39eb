package models

import "time"

// ReportStatus captures the lifecycle state of an academic-warning report.
type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "draft"
	ReportStatusSubmitted ReportStatus = "submitted"
	ReportStatusApproved  ReportStatus = "approved"
	ReportStatusFinalized ReportStatus = "finalized"
)

// Valid reports whether s is a known status.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusDraft, ReportStatusSubmitted, ReportStatusApproved, ReportStatusFinalized:
		return true
	}
	return false
}

// CreatedPeriod selects reports by creation date relative to now.
type CreatedPeriod string

const (
	CreatedAnyTime   CreatedPeriod = "all"
	CreatedToday     CreatedPeriod = "today"
	CreatedThisWeek  CreatedPeriod = "week"
	CreatedThisMonth CreatedPeriod = "month"
)

// Valid reports whether p is a known period; empty means all.
func (p CreatedPeriod) Valid() bool {
	switch p {
	case "", CreatedAnyTime, CreatedToday, CreatedThisWeek, CreatedThisMonth:
		return true
	}
	return false
}

// Bounds returns the half-open [from, to) range of p around now. Weeks start on Monday. The zero
// range means no bound.
func (p CreatedPeriod) Bounds(now time.Time) (from, to time.Time) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch p {
	case CreatedToday:
		return day, day.AddDate(0, 0, 1)
	case CreatedThisWeek:
		offset := (int(day.Weekday()) + 6) % 7
		monday := day.AddDate(0, 0, -offset)
		return monday, monday.AddDate(0, 0, 7)
	case CreatedThisMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return first, first.AddDate(0, 1, 0)
	}
	return time.Time{}, time.Time{}
}

// DvsvStatus is the outcome recorded by student affairs.
type DvsvStatus string

const (
	DvsvStatusPending DvsvStatus = "pending"
	DvsvStatusSuccess DvsvStatus = "success"
	DvsvStatusFailed  DvsvStatus = "failed"
)

// StudyStatus is the student's enrolment state as shown on the sheet.
type StudyStatus string

const (
	StudyStatusStudying  StudyStatus = "studying"
	StudyStatusRepeating StudyStatus = "repeating"
	StudyStatusOnHold    StudyStatus = "on-hold"
	StudyStatusWithdrawn StudyStatus = "withdrawn"
)

// CampusCode identifies a training site.
type CampusCode string

const (
	CampusHN  CampusCode = "HN"
	CampusDN  CampusCode = "DN"
	CampusHCM CampusCode = "HCM"
	CampusCT  CampusCode = "CT"
)

// CampusNames maps campus codes to display names.
var CampusNames = map[CampusCode]string{
	CampusHN:  "Hà Nội",
	CampusDN:  "Đà Nẵng",
	CampusHCM: "Hồ Chí Minh",
	CampusCT:  "Cần Thơ",
}

// Valid reports whether c is one of the configured campuses.
func (c CampusCode) Valid() bool {
	_, ok := CampusNames[c]
	return ok
}

// AssessmentDateLayout is the display format stored in Report.AssessmentDate.
const AssessmentDateLayout = "02/01/2006"

// Report is one academic-warning record for one student in one subject.
type Report struct {
	ID          string     `db:"id" json:"id"`
	LecturerID  string     `db:"lecturer_id" json:"lecturer_id"`
	Campus      CampusCode `db:"campus" json:"campus"`
	StudentCode string     `db:"student_code" json:"student_code"`
	StudentName string     `db:"student_name" json:"student_name"`
	ClassName   string     `db:"class_name" json:"class_name"`
	Subject     string     `db:"subject" json:"subject"`

	Warn10   bool `db:"warn_10" json:"warn_10"`
	Warn1517 bool `db:"warn_15_17" json:"warn_15_17"`
	Warn20   bool `db:"warn_20" json:"warn_20"`
	Banned   bool `db:"banned" json:"banned"`

	StatusDetail string     `db:"status_detail" json:"status_detail"`
	TeacherNote  string     `db:"teacher_note" json:"teacher_note"`
	DvsvNote     string     `db:"dvsv_note" json:"dvsv_note"`
	DvsvStatus   DvsvStatus `db:"dvsv_status" json:"dvsv_status"`

	StudyStatus    StudyStatus `db:"study_status" json:"study_status"`
	AssessmentDate string      `db:"assessment_date" json:"assessment_date"`

	Status    ReportStatus `db:"status" json:"status"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// Warned reports whether any warning flag is raised.
func (r Report) Warned() bool {
	return r.Warn10 || r.Warn1517 || r.Warn20 || r.Banned
}

// Field returns the current value of a note field.
func (r Report) Field(field LogType) string {
	switch field {
	case LogTypeStatusDetail:
		return r.StatusDetail
	case LogTypeTeacherNote:
		return r.TeacherNote
	case LogTypeDvsvNote:
		return r.DvsvNote
	}
	return ""
}

// SetField overwrites a note field; other log types are ignored.
func (r *Report) SetField(field LogType, value string) {
	switch field {
	case LogTypeStatusDetail:
		r.StatusDetail = value
	case LogTypeTeacherNote:
		r.TeacherNote = value
	case LogTypeDvsvNote:
		r.DvsvNote = value
	}
}

// ReportFilter constrains report queries. Empty fields do not filter.
type ReportFilter struct {
	IDs        []string
	LecturerID string
	Campus     CampusCode
	Status     []ReportStatus
	ClassName  string
	Search     string
	// CreatedFrom is inclusive and CreatedTo exclusive; zero values do not bound.
	CreatedFrom time.Time
	CreatedTo   time.Time
}

// StatusTransition describes a conditional bulk status change: only rows currently in From and
// matching the scope move to To. Without IDs the transition touches nothing unless AllIDs is set.
type StatusTransition struct {
	IDs        []string
	AllIDs     bool
	LecturerID string
	Campus     CampusCode
	From       ReportStatus
	To         ReportStatus
	At         time.Time
}

// ReportStats summarises the reports visible to an actor.
type ReportStats struct {
	Total       int                        `json:"total"`
	ByStatus    map[ReportStatus]int       `json:"by_status"`
	Banned      int                        `json:"banned"`
	Warned      int                        `json:"warned"`
	CareSuccess int                        `json:"care_success"`
	CareFailed  int                        `json:"care_failed"`
	ByCampus    map[CampusCode]CampusStats `json:"by_campus"`
	GeneratedAt time.Time                  `json:"generated_at"`
}

// CampusStats counts one campus's reports within a summary.
type CampusStats struct {
	Total  int `json:"total"`
	Banned int `json:"banned"`
}
