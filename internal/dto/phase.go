package dto

// ── phase DTOs ──

// UpdatePhaseRequest edits a phase window. Start and End use CivilLayout.
type UpdatePhaseRequest struct {
	Title string `json:"title" binding:"required,min=1,max=255"`
	Start string `json:"start" binding:"required"`
	End   string `json:"end"   binding:"required"`
}

// PhaseResponse one phase of the calendar.
type PhaseResponse struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Timezone  string `json:"timezone"`
	UpdatedAt string `json:"updated_at"`
}

// UpdatePhaseResponse the edited phase and whether its start timer is armed.
type UpdatePhaseResponse struct {
	PhaseResponse
	Scheduled bool `json:"scheduled"`
}

// ApplyPhaseResponse result of a manual re-evaluation.
type ApplyPhaseResponse struct {
	FromPhaseID int `json:"from_phase_id"`
	Advanced    int `json:"advanced"`
}

// TransitionLogResponse one audit row.
type TransitionLogResponse struct {
	ID          uint   `json:"id"`
	FromPhaseID int    `json:"from_phase_id"`
	ToPhaseID   *int   `json:"to_phase_id,omitempty"`
	Trigger     string `json:"trigger"`
	Advanced    int    `json:"advanced"`
	Skipped     int    `json:"skipped"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	ProcessIDs  []uint `json:"process_ids,omitempty"`
	CreatedAt   string `json:"created_at"`
}
