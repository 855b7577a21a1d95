package model

import "errors"

// ErrDepartmentNotLoaded the Department association was not preloaded.
var ErrDepartmentNotLoaded = errors.New("process department not loaded")

// Process one student's progress through the phase calendar (processes table).
// PhaseID only ever increases.
type Process struct {
	ID             uint  `gorm:"primaryKey"                                 json:"id"`
	StudentID      uint  `gorm:"not null;uniqueIndex"                       json:"student_id"`
	DepartmentID   uint  `gorm:"not null"                                   json:"department_id"`
	PhaseID        int   `gorm:"not null;index"                             json:"phase_id"`
	CurrentStage   Stage `gorm:"type:varchar(20);not null"                  json:"current_stage"`
	IsLock         bool  `gorm:"not null;default:false"                     json:"is_lock"`
	HeadReviewerID *uint `json:"head_reviewer_id,omitempty"`
	BaseModel

	Department  *Department       `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	Reviewers   []ProcessReviewer `gorm:"foreignKey:ProcessID"    json:"reviewers,omitempty"`
	ThesisInfos []ThesisInfo      `gorm:"foreignKey:ProcessID"    json:"thesis_infos,omitempty"`
}

func (Process) TableName() string { return "processes" }

// ProcessReviewer committee membership (process_reviewers table).
type ProcessReviewer struct {
	ID         uint `gorm:"primaryKey"                                    json:"id"`
	ProcessID  uint `gorm:"not null;uniqueIndex:idx_process_reviewer"     json:"process_id"`
	ReviewerID uint `gorm:"not null;uniqueIndex:idx_process_reviewer"     json:"reviewer_id"`
}

func (ProcessReviewer) TableName() string { return "process_reviewers" }

// ModificationRequired is inherited from the student's department.
func (p *Process) ModificationRequired() (bool, error) {
	if p.Department == nil {
		return false, ErrDepartmentNotLoaded
	}
	return p.Department.ModificationFlag, nil
}

// ThesisInfoFor returns the record of the given stage, if loaded.
func (p *Process) ThesisInfoFor(stage Stage) (*ThesisInfo, bool) {
	for i := range p.ThesisInfos {
		if p.ThesisInfos[i].Stage == stage {
			return &p.ThesisInfos[i], true
		}
	}
	return nil, false
}

// ReviewerIDs returns the committee member ids.
func (p *Process) ReviewerIDs() []uint {
	ids := make([]uint, 0, len(p.Reviewers))
	for _, r := range p.Reviewers {
		ids = append(ids, r.ReviewerID)
	}
	return ids
}

// NewProcess builds a process at the first phase together with its
// committee, the PRELIMINARY and MAIN thesis records, their file slots and
// one review per reviewer plus the head reviewer's final review per stage.
// Creating the returned value with gorm inserts the whole tree in one
// transaction.
func NewProcess(studentID, departmentID, headReviewerID uint, reviewerIDs []uint, title, abstract string) *Process {
	head := headReviewerID
	p := &Process{
		StudentID:      studentID,
		DepartmentID:   departmentID,
		PhaseID:        PhaseFirst,
		CurrentStage:   StagePreliminary,
		HeadReviewerID: &head,
	}
	for _, id := range reviewerIDs {
		p.Reviewers = append(p.Reviewers, ProcessReviewer{ReviewerID: id})
	}
	for _, stage := range []Stage{StagePreliminary, StageMain} {
		p.ThesisInfos = append(p.ThesisInfos, *NewThesisInfo(stage, title, abstract, headReviewerID, reviewerIDs))
	}
	return p
}

// NewRevisionThesis builds the REVISION record for a process that took the
// revision branch. Title and abstract carry over from the MAIN record.
func NewRevisionThesis(p *Process) *ThesisInfo {
	var title, abstract string
	if main, ok := p.ThesisInfoFor(StageMain); ok {
		title, abstract = main.Title, main.Abstract
	}
	var head uint
	if p.HeadReviewerID != nil {
		head = *p.HeadReviewerID
	}
	info := NewThesisInfo(StageRevision, title, abstract, head, p.ReviewerIDs())
	info.ProcessID = p.ID
	return info
}
