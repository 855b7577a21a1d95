package model

// Review one reviewer's verdict on a ThesisInfo (reviews table). Each ThesisInfo
// has one review per committee member plus one final review by the head
// reviewer.
type Review struct {
	ID                 uint    `gorm:"primaryKey"                                      json:"id"`
	ThesisInfoID       uint    `gorm:"not null;uniqueIndex:idx_review_unique"          json:"thesis_info_id"`
	ReviewerID         uint    `gorm:"not null;uniqueIndex:idx_review_unique"          json:"reviewer_id"`
	ContentStatus      Status  `gorm:"type:varchar(20);not null;default:'UNEXAMINED'"  json:"content_status"`
	PresentationStatus Status  `gorm:"type:varchar(20);not null;default:'UNEXAMINED'"  json:"presentation_status"`
	Comment            string  `gorm:"type:text;not null;default:''"                   json:"comment"`
	FileID             *string `gorm:"type:varchar(64)"                                json:"file_id,omitempty"`
	IsFinal            bool    `gorm:"not null;default:false;uniqueIndex:idx_review_unique" json:"is_final"`
	BaseModel

	ThesisInfo *ThesisInfo `gorm:"foreignKey:ThesisInfoID" json:"-"`
}

func (Review) TableName() string { return "reviews" }

// NewReview builds an unexamined review.
func NewReview(reviewerID uint, final bool) Review {
	return Review{
		ReviewerID:         reviewerID,
		ContentStatus:      StatusUnexamined,
		PresentationStatus: StatusUnexamined,
		IsFinal:            final,
	}
}
