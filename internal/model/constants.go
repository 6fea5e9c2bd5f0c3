package model

// Grade bounds enforced by the service layer before anything reaches the
// database.
const (
	MinGrade = 1
	MaxGrade = 5
)

// IPUnavailable is stored when the submitter's address cannot be determined.
const IPUnavailable = "unavailable"
