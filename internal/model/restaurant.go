package model

import "database/sql"

// Restaurant is the central entity of the guide. Description and Website are
// optional columns: sql.NullString keeps SQL NULL distinct from an empty
// string on both read and write.
//
// Evaluations is populated only by an explicit eager load through the
// orchestrator, never as a side effect of loading the restaurant itself.
type Restaurant struct {
	ID          int
	Name        string
	Street      string
	Description sql.NullString
	Website     sql.NullString
	City        *City
	Type        *RestaurantType
	Evaluations []Evaluation
}

// EntityID returns the surrogate identifier, zero for a transient
// restaurant.
func (r *Restaurant) EntityID() int { return r.ID }

// OptionalString builds a nullable column value: the empty string maps to
// SQL NULL.
func OptionalString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
