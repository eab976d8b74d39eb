package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// LogType identifies what a ReportLog entry records.
type LogType string

const (
	LogTypeStatusDetail LogType = "status_detail"
	LogTypeTeacherNote  LogType = "teacher_note"
	LogTypeDvsvNote     LogType = "dvsv_note"
	LogTypeFullUpdate   LogType = "full_update"
)

// NoteField reports whether t is one of the per-field note threads.
func (t LogType) NoteField() bool {
	switch t {
	case LogTypeStatusDetail, LogTypeTeacherNote, LogTypeDvsvNote:
		return true
	}
	return false
}

// ReportLog is an immutable audit entry attached to a report.
type ReportLog struct {
	ID        string    `db:"id" json:"id"`
	ReportID  string    `db:"report_id" json:"report_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	UserName  string    `db:"user_name" json:"user_name"`
	Type      LogType   `db:"type" json:"type"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SnapshotVersion is the current full_update payload schema.
const SnapshotVersion = 1

// LogPayload is the decoded body of a ReportLog: either SnapshotV1 or RawNote.
type LogPayload interface {
	payloadKind() string
}

// SnapshotV1 is the archived state of a report before an assessment cycle moved forward.
type SnapshotV1 struct {
	Version        int    `json:"version"`
	AssessmentDate string `json:"assessment_date"`
	Warn10         bool   `json:"warn_10"`
	Warn1517       bool   `json:"warn_15_17"`
	Warn20         bool   `json:"warn_20"`
	Banned         bool   `json:"banned"`
	StatusDetail   string `json:"status_detail"`
	TeacherNote    string `json:"teacher_note"`
	Note           string `json:"note"`
}

func (SnapshotV1) payloadKind() string { return "snapshot_v1" }

// RawNote carries free text, or full_update content that could not be decoded.
type RawNote struct {
	Text string `json:"text"`
}

func (RawNote) payloadKind() string { return "raw" }

// SnapshotOf captures the versioned fields of r.
func SnapshotOf(r Report, note string) SnapshotV1 {
	return SnapshotV1{
		Version:        SnapshotVersion,
		AssessmentDate: r.AssessmentDate,
		Warn10:         r.Warn10,
		Warn1517:       r.Warn1517,
		Warn20:         r.Warn20,
		Banned:         r.Banned,
		StatusDetail:   r.StatusDetail,
		TeacherNote:    r.TeacherNote,
		Note:           note,
	}
}

// EncodeSnapshot serialises a snapshot into ReportLog.Content.
func EncodeSnapshot(s SnapshotV1) (string, error) {
	s.Version = SnapshotVersion
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return string(raw), nil
}

// DecodePayload interprets a log's content. Note logs are always RawNote. full_update content
// without a version key is a legacy snapshot and decodes as SnapshotV1; anything else that does
// not decode as a known version falls back to RawNote with the original text.
func DecodePayload(log ReportLog) LogPayload {
	if log.Type != LogTypeFullUpdate {
		return RawNote{Text: log.Content}
	}
	var probe struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal([]byte(log.Content), &probe); err != nil {
		return RawNote{Text: log.Content}
	}
	if probe.Version != nil && *probe.Version != SnapshotVersion {
		return RawNote{Text: log.Content}
	}
	var snap SnapshotV1
	if err := json.Unmarshal([]byte(log.Content), &snap); err != nil {
		return RawNote{Text: log.Content}
	}
	if snap.AssessmentDate == "" && snap.Note == "" {
		return RawNote{Text: log.Content}
	}
	snap.Version = SnapshotVersion
	return snap
}

// CycleEntry is one archived assessment cycle as shown in the history viewer.
type CycleEntry struct {
	LogID     string     `json:"log_id"`
	ReportID  string     `json:"report_id"`
	UserID    string     `json:"user_id"`
	UserName  string     `json:"user_name"`
	CreatedAt time.Time  `json:"created_at"`
	Snapshot  SnapshotV1 `json:"snapshot"`
	// Raw is set when the stored content could not be decoded; Snapshot.Note then holds the text.
	Raw bool `json:"raw,omitempty"`
}

// CycleEntryFrom decodes a full_update log into a history entry.
func CycleEntryFrom(log ReportLog) CycleEntry {
	entry := CycleEntry{
		LogID:     log.ID,
		ReportID:  log.ReportID,
		UserID:    log.UserID,
		UserName:  log.UserName,
		CreatedAt: log.CreatedAt,
	}
	switch payload := DecodePayload(log).(type) {
	case SnapshotV1:
		entry.Snapshot = payload
	case RawNote:
		entry.Snapshot = SnapshotV1{Note: payload.Text}
		entry.Raw = true
	}
	return entry
}
