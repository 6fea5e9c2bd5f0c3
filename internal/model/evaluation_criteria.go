package model

// EvaluationCriteria is one axis a complete evaluation grades a restaurant
// on (service, food, ambience, ...). Criteria are stable reference data
// shared by all complete evaluations.
type EvaluationCriteria struct {
	ID          int
	Name        string
	Description string
}

// EntityID returns the surrogate identifier, zero for a transient criterion.
func (c *EvaluationCriteria) EntityID() int { return c.ID }
