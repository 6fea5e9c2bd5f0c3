package model

// RestaurantType classifies a restaurant's cuisine (pizzeria, gastro, ...).
// Types are stable reference data shared across restaurants.
type RestaurantType struct {
	ID          int
	Label       string // Label is the short display name and ordering key
	Description string
}

// EntityID returns the surrogate identifier, zero for a transient type.
func (t *RestaurantType) EntityID() int { return t.ID }
