// Package review reduces the reviews of one ThesisInfo to a single summary.
package review

import "github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/model"

// Aggregate folds reviews into a summary, judging both the content and the
// presentation axis.
//
// Precedence: any FAIL ⇒ FAIL; no reviews, or nothing examined yet ⇒
// UNEXAMINED; any axis still UNEXAMINED or PENDING ⇒ PENDING; otherwise PASS.
// The result does not depend on the order of reviews.
func Aggregate(reviews []model.Review) model.Status {
	return aggregate(reviews, true)
}

// AggregateStage is Aggregate with the axes that apply to the stage.
// Revision reviews judge the revision report only, so their presentation
// axis is ignored.
func AggregateStage(stage model.Stage, reviews []model.Review) model.Status {
	return aggregate(reviews, stage != model.StageRevision)
}

func aggregate(reviews []model.Review, withPresentation bool) model.Status {
	examined := false
	incomplete := false

	for _, r := range reviews {
		axes := [2]model.Status{r.ContentStatus, r.PresentationStatus}
		n := 1
		if withPresentation {
			n = 2
		}
		for _, s := range axes[:n] {
			switch s {
			case model.StatusFail:
				return model.StatusFail
			case model.StatusPass:
				examined = true
			case model.StatusPending:
				examined = true
				incomplete = true
			default:
				// unknown values count as not yet examined
				incomplete = true
			}
		}
	}

	switch {
	case !examined:
		return model.StatusUnexamined
	case incomplete:
		return model.StatusPending
	default:
		return model.StatusPass
	}
}
