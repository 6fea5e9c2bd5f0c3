package model

// City is a postal locality restaurants belong to. Cities are shared:
// several restaurants may reference the same city row.
type City struct {
	ID      int    // ID is the surrogate key; zero until persisted
	ZipCode string // ZipCode is the postal code, kept as text (leading zeros)
	Name    string // Name is the display name, the natural ordering key
}

// EntityID returns the surrogate identifier, zero for a transient city.
func (c *City) EntityID() int { return c.ID }
