package models

// BroadcastTarget is the reserved recipient meaning every participant.
const BroadcastTarget = "Todos"

// Message kinds. Status events are system-generated on join/leave and can
// never be created, edited, or deleted by a client.
const (
	KindStatus  = "status"
	KindMessage = "message"
	KindPrivate = "private_message"
)

// ChatEvent is a single entry in the append-only event log: a broadcast
// message, a private message, or a system status event.
type ChatEvent struct {
	ID   int    `db:"id" json:"id"`
	From string `db:"from_name" json:"from"`
	To   string `db:"to_name" json:"to"`
	Text string `db:"text" json:"text"`
	Kind string `db:"kind" json:"type"`
	Time string `db:"time" json:"time"`
}

// VisibleTo reports whether the event may be shown to user: own events,
// events addressed to the user or to everyone, and any broadcast-kind
// message regardless of addressing.
func (e ChatEvent) VisibleTo(user string) bool {
	return e.From == user || e.To == user || e.To == BroadcastTarget || e.Kind == KindMessage
}
