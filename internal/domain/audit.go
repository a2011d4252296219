package domain

import (
	"encoding/json"
	"time"
)

// DefaultActor is recorded when a mutation carries no acting user.
const DefaultActor = "system"

// AuditEntry is an append-only record of a mutation on an entity.
// Changes holds the serialized change payload and is nil when the
// mutation carried none.
type AuditEntry struct {
	ID        int64
	Entity    EntityType
	EntityID  int64
	Action    AuditAction
	Username  string
	CreatedAt time.Time
	Changes   json.RawMessage
}
