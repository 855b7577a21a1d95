package model

// ThesisInfo one review stage of a process (thesis_infos table).
type ThesisInfo struct {
	ID        uint   `gorm:"primaryKey"                                            json:"id"`
	ProcessID uint   `gorm:"not null;uniqueIndex:idx_thesis_info_stage"            json:"process_id"`
	Stage     Stage  `gorm:"type:varchar(20);not null;uniqueIndex:idx_thesis_info_stage" json:"stage"`
	Title     string `gorm:"type:varchar(255);not null;default:''"                json:"title"`
	Abstract  string `gorm:"type:text;not null;default:''"                        json:"abstract"`
	Summary   Status `gorm:"type:varchar(20);not null;default:'UNEXAMINED'"       json:"summary"`
	BaseModel

	Files   []ThesisFile `gorm:"foreignKey:ThesisInfoID" json:"files,omitempty"`
	Reviews []Review     `gorm:"foreignKey:ThesisInfoID" json:"reviews,omitempty"`
}

func (ThesisInfo) TableName() string { return "thesis_infos" }

// SubmissionComplete reports whether every file slot of the stage has an
// uploaded file. A stage without slots is never complete.
func (t *ThesisInfo) SubmissionComplete() bool {
	if len(t.Files) == 0 {
		return false
	}
	for _, f := range t.Files {
		if f.FileID == nil || *f.FileID == "" {
			return false
		}
	}
	return true
}

// ThesisFile one required document slot (thesis_files table). FileID stays nil
// until the student uploads.
type ThesisFile struct {
	ID           uint     `gorm:"primaryKey"                                         json:"id"`
	ThesisInfoID uint     `gorm:"not null;uniqueIndex:idx_thesis_file_type"          json:"thesis_info_id"`
	Type         FileType `gorm:"type:varchar(30);not null;uniqueIndex:idx_thesis_file_type" json:"type"`
	FileID       *string  `gorm:"type:varchar(64)"                                   json:"file_id,omitempty"`
	BaseModel
}

func (ThesisFile) TableName() string { return "thesis_files" }

// NewThesisInfo builds a stage record with empty file slots and
// unexamined reviews.
func NewThesisInfo(stage Stage, title, abstract string, headReviewerID uint, reviewerIDs []uint) *ThesisInfo {
	info := &ThesisInfo{
		Stage:    stage,
		Title:    title,
		Abstract: abstract,
		Summary:  StatusUnexamined,
	}
	for _, ft := range RequiredFiles(stage) {
		info.Files = append(info.Files, ThesisFile{Type: ft})
	}
	for _, id := range reviewerIDs {
		info.Reviews = append(info.Reviews, NewReview(id, false))
	}
	info.Reviews = append(info.Reviews, NewReview(headReviewerID, true))
	return info
}
