package model

import "time"

// Phase ids of the review calendar. The id is the only ordering.
const (
	PhasePreliminaryUpload = 1
	PhasePreliminaryReview = 2
	PhasePreliminaryFinal  = 3
	PhaseMainUpload        = 4
	PhaseMainReview        = 5
	PhaseMainFinal         = 6
	PhaseRevisionUpload    = 7
	PhaseRevisionReview    = 8
	PhasePerformanceReport = 9
	PhaseCompleted         = 10

	PhaseFirst = PhasePreliminaryUpload
	PhaseLast  = PhaseCompleted
)

// Phase one period of the review calendar (phases table).
// Start and End are civil times in the scheduler timezone.
type Phase struct {
	ID    int       `gorm:"primaryKey;autoIncrement:false"          json:"id"`
	Title string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"title"`
	Start time.Time `gorm:"type:timestamp;not null"                json:"start"`
	End   time.Time `gorm:"type:timestamp;not null"                json:"end"`
	BaseModel
}

func (Phase) TableName() string { return "phases" }

// StartAt is the instant Start denotes in loc.
func (p *Phase) StartAt(loc *time.Location) time.Time {
	return CivilInstant(p.Start, loc)
}

// EndAt is the instant End denotes in loc.
func (p *Phase) EndAt(loc *time.Location) time.Time {
	return CivilInstant(p.End, loc)
}

// CivilInstant reads t's wall clock in loc, ignoring whatever zone t
// carries. Drivers hand back timestamp columns in UTC or time.Local.
func CivilInstant(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}
