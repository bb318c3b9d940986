package domain

// Profile is the public, read-only view of a user and their enabled links.
// Featured is the first enabled link by order; Standard holds the rest.
type Profile struct {
	User     *User  `json:"user"`
	Links    []Link `json:"links"`
	Featured *Link  `json:"featured,omitempty"`
	Standard []Link `json:"standard"`
}
