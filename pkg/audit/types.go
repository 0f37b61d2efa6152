package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Result classifies the outcome of an audited action.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
	ResultDenied  Result = "denied"
)

// Actor labels for events not attributable to a tenant. Tenant-initiated
// actions use TenantActor.
const (
	ActorSystem   = "system"
	ActorOperator = "operator"
)

// TenantActor formats the actor label for a tenant-initiated action.
func TenantActor(tenantID string) string {
	return "tenant:" + tenantID
}

// Event is a single immutable audit trail entry. Caller identifiers in
// Metadata pass through the PII filter before persistence; the raw values
// never reach storage.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	TenantID   string         `json:"tenant_id,omitempty"`
	Actor      string         `json:"actor"`
	SessionID  string         `json:"session_id,omitempty"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource,omitempty"`
	ResourceID string         `json:"resource_id,omitempty"`
	Result     Result         `json:"result"`
	Error      string         `json:"error,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	IP         string         `json:"ip,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Checksum   string         `json:"checksum,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Validate checks the fields every stored event must carry.
func (e *Event) Validate() error {
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrInvalidEvent)
	}
	if e.Actor == "" {
		return fmt.Errorf("%w: actor is required", ErrInvalidEvent)
	}
	switch e.Result {
	case ResultSuccess, ResultFailure, ResultDenied:
	default:
		return fmt.Errorf("%w: unknown result %q", ErrInvalidEvent, e.Result)
	}
	return nil
}

// EventOption applies configuration to an Event during creation.
// Used with Log and LogError to attach resources, metadata, and overrides.
type EventOption func(*Event)
