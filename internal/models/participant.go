package models

// Participant is a registered chat presence. Name is the identity; it is
// unique among currently-registered participants and immutable once created.
type Participant struct {
	Name     string `db:"name" json:"name"`
	LastSeen int64  `db:"last_seen" json:"lastSeen"`
}
