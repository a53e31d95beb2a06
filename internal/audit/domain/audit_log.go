package domain

import "time"

// AuditLog records one administrative mutation on the authorization model.
type AuditLog struct {
	ID         string
	ScopeID    string
	ActorID    string
	Action     string
	Resource   string
	ResourceID string
	CreatedAt  time.Time
}
