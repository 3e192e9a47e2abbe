package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing.
type EventCategory string

const (
	// CategoryContent covers changes to terminology content made on behalf of users.
	// These are kept for the lifetime of the branch.
	// Examples: regenerated attribute rules and domain templates, full rebuilds.
	CategoryContent EventCategory = "content"

	// CategoryOperations covers operator actions and failures useful for debugging.
	// Examples: auto-update toggled, regeneration aborted.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	Branch    string
	CommitID  string
	Subject   string
	Action    string
	Reason    string
	// Changes counts the documents the action touched.
	Changes   int
	RequestID string
	// ActorID tracks who triggered the action: an operator, "cli" or "commit-hook".
	ActorID string
}

type AuditEvent string

const (
	EventMRCMRegenerated       AuditEvent = "mrcm_regenerated"
	EventMRCMRebuilt           AuditEvent = "mrcm_rebuilt"
	EventMRCMRegenerationFail  AuditEvent = "mrcm_regeneration_failed"
	EventMRCMAutoUpdateToggled AuditEvent = "mrcm_auto_update_toggled"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventMRCMRegenerated: CategoryContent,
	EventMRCMRebuilt:     CategoryContent,

	EventMRCMRegenerationFail:  CategoryOperations,
	EventMRCMAutoUpdateToggled: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
