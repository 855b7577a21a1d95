package dto

// ── process DTOs ──

// ProcessListRequest filters the processes of a phase.
type ProcessListRequest struct {
	Locked *bool  `form:"locked"`
	Stage  string `form:"stage" binding:"omitempty,oneof=PRELIMINARY MAIN REVISION"`
}

// SetLockRequest locks or unlocks automatic advance.
type SetLockRequest struct {
	Locked *bool `json:"locked" binding:"required"`
}

// SetPhaseRequest moves a process forward by hand.
type SetPhaseRequest struct {
	PhaseID int `json:"phase_id" binding:"required,min=1,max=10"`
}

// ProcessSummaryResponse a process row in lists.
type ProcessSummaryResponse struct {
	ID           uint   `json:"id"`
	StudentID    uint   `json:"student_id"`
	DepartmentID uint   `json:"department_id"`
	PhaseID      int    `json:"phase_id"`
	CurrentStage string `json:"current_stage"`
	IsLock       bool   `json:"is_lock"`
}

// StageResponse one thesis record of a process.
type StageResponse struct {
	ThesisInfoID       uint   `json:"thesis_info_id"`
	Stage              string `json:"stage"`
	Title              string `json:"title"`
	Summary            string `json:"summary"`
	SubmissionComplete bool   `json:"submission_complete"`
	ReviewCount        int    `json:"review_count"`
}

// ProcessDetailResponse a process with its stages.
type ProcessDetailResponse struct {
	ProcessSummaryResponse
	ModificationRequired bool            `json:"modification_required"`
	HeadReviewerID       *uint           `json:"head_reviewer_id,omitempty"`
	ReviewerIDs          []uint          `json:"reviewer_ids"`
	Stages               []StageResponse `json:"stages"`
}
