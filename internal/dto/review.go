package dto

// ── review DTOs ──

// UpdateReviewRequest a reviewer's verdict. Omitted fields keep their value.
type UpdateReviewRequest struct {
	ContentStatus      *string `json:"content_status"      binding:"omitempty,oneof=UNEXAMINED PENDING PASS FAIL"`
	PresentationStatus *string `json:"presentation_status" binding:"omitempty,oneof=UNEXAMINED PENDING PASS FAIL"`
	Comment            *string `json:"comment"             binding:"omitempty,max=5000"`
	FileID             *string `json:"file_id"             binding:"omitempty,max=64"`
}

// ReviewResponse the updated review and the summary of its thesis record.
type ReviewResponse struct {
	ID                 uint    `json:"id"`
	ThesisInfoID       uint    `json:"thesis_info_id"`
	ReviewerID         uint    `json:"reviewer_id"`
	IsFinal            bool    `json:"is_final"`
	ContentStatus      string  `json:"content_status"`
	PresentationStatus string  `json:"presentation_status"`
	Comment            string  `json:"comment"`
	FileID             *string `json:"file_id,omitempty"`
	ThesisSummary      string  `json:"thesis_summary"`
}
