package model

import (
	"database/sql"
	"time"
)

// Evaluation is the common view over both evaluation kinds. The two kinds
// live in different tables with different shapes; this interface is what
// lets a restaurant carry them in one collection.
type Evaluation interface {
	EntityID() int
	VisitDate() time.Time
	Owner() *Restaurant
}

// EvaluationBase carries the fields shared by both evaluation kinds and
// implements the Evaluation interface for the structs that embed it.
type EvaluationBase struct {
	ID         int
	VisitedAt  time.Time
	Restaurant *Restaurant
}

// EntityID returns the surrogate identifier, zero for a transient
// evaluation.
func (e *EvaluationBase) EntityID() int { return e.ID }

// VisitDate returns the date the visit being evaluated took place.
func (e *EvaluationBase) VisitDate() time.Time { return e.VisitedAt }

// Owner returns the restaurant the evaluation belongs to.
func (e *EvaluationBase) Owner() *Restaurant { return e.Restaurant }

// BasicEvaluation is an anonymous like/dislike vote, identified only by the
// submitter's IP address.
type BasicEvaluation struct {
	EvaluationBase
	Liked     bool
	IPAddress string
}

// CompleteEvaluation is a signed review: a free-text comment plus one grade
// per evaluation criterion.
type CompleteEvaluation struct {
	EvaluationBase
	Comment  sql.NullString
	Username string
	Grades   []*Grade
}
