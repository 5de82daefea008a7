package workbench

import "time"

// OnlineWindow is how long after its last registration ping an assistant is
// still reported online. Assistants re-register every half of this.
const OnlineWindow = 2 * time.Minute

// Assistant is an automated conversational agent registered with the service.
// The directory entry is upserted by the registration ping; Endpoint is where
// conversation events are delivered.
type Assistant struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Endpoint     string    `db:"endpoint"`
	Capabilities []string  `db:"capabilities"`
	RegisteredAt time.Time `db:"registered_at"`
	LastSeen     time.Time `db:"last_seen"`
}

// Online reports whether the assistant's last registration ping is recent
// enough to consider it reachable.
func (a Assistant) Online(now time.Time) bool {
	return now.Sub(a.LastSeen) <= OnlineWindow
}
