package model

// Grade scores one criterion within a complete evaluation.
//
// Evaluation is a back-reference only: the grade mapper never follows it
// while loading, the owning evaluation's mapper sets it after construction.
// Loading it eagerly would recurse forever between the two types.
type Grade struct {
	ID         int
	Value      int
	Evaluation *CompleteEvaluation
	Criteria   *EvaluationCriteria
}

// EntityID returns the surrogate identifier, zero for a transient grade.
func (g *Grade) EntityID() int { return g.ID }
