package mapper

import (
	"github.com/rs/zerolog"

	"github.com/guideresto/guideresto/internal/database"
)

// Mappers wires one mapper per table on a shared session. Each mapper owns
// its own identity map; nothing here is a singleton, and application wiring
// passes this container around explicitly.
type Mappers struct {
	Cities      *CityMapper
	Types       *RestaurantTypeMapper
	Criteria    *EvaluationCriteriaMapper
	Grades      *GradeMapper
	Restaurants *RestaurantMapper
	Basic       *BasicEvaluationMapper
	Complete    *CompleteEvaluationMapper
}

// NewMappers constructs the full mapper set, composing the relationship
// edges: restaurants resolve cities and types, grades resolve criteria,
// evaluations resolve restaurants, complete evaluations own grades.
func NewMappers(session *database.Session, log zerolog.Logger) *Mappers {
	cities := NewCityMapper(session, log)
	types := NewRestaurantTypeMapper(session, log)
	criteria := NewEvaluationCriteriaMapper(session, log)
	grades := NewGradeMapper(session, log, criteria)
	restaurants := NewRestaurantMapper(session, log, cities, types)
	basic := NewBasicEvaluationMapper(session, log, restaurants)
	complete := NewCompleteEvaluationMapper(session, log, restaurants, grades)

	return &Mappers{
		Cities:      cities,
		Types:       types,
		Criteria:    criteria,
		Grades:      grades,
		Restaurants: restaurants,
		Basic:       basic,
		Complete:    complete,
	}
}
