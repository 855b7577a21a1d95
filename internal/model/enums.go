package model

// Stage is the review round a ThesisInfo belongs to.
type Stage string

const (
	StagePreliminary Stage = "PRELIMINARY"
	StageMain        Stage = "MAIN"
	StageRevision    Stage = "REVISION"
)

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	switch s {
	case StagePreliminary, StageMain, StageRevision:
		return true
	}
	return false
}

// Status is both a reviewer's verdict on one axis and the aggregated
// summary of a ThesisInfo.
type Status string

const (
	StatusUnexamined Status = "UNEXAMINED"
	StatusPending    Status = "PENDING"
	StatusPass       Status = "PASS"
	StatusFail       Status = "FAIL"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusUnexamined, StatusPending, StatusPass, StatusFail:
		return true
	}
	return false
}

// FileType is the kind of document a ThesisFile slot holds.
type FileType string

const (
	FileThesis         FileType = "THESIS"
	FilePresentation   FileType = "PRESENTATION"
	FileRevisionReport FileType = "REVISION_REPORT"
)

// RequiredFiles lists the file slots created for a stage.
func RequiredFiles(stage Stage) []FileType {
	if stage == StageRevision {
		return []FileType{FileRevisionReport}
	}
	return []FileType{FileThesis, FilePresentation}
}
