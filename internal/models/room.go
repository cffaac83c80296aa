package models

// Room is read-only reference data for the scheduling engine. The inventory
// is loaded sorted by capacity descending and never mutated by a run.
type Room struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Capacity int    `db:"capacity" json:"capacity"`
	Type     string `db:"room_type" json:"type"`
	Building string `db:"building" json:"building"`
}
