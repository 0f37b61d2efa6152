package audit

// WithResource sets the resource type and identifier the action touched.
func WithResource(resource, id string) EventOption {
	return func(e *Event) {
		e.Resource = resource
		e.ResourceID = id
	}
}

// WithMetadata adds one metadata entry. Values pass through the logger's
// PII filter before persistence.
func WithMetadata(key string, value any) EventOption {
	return func(e *Event) {
		if e.Metadata == nil {
			e.Metadata = make(map[string]any)
		}
		e.Metadata[key] = value
	}
}

// WithResult overrides the event result.
func WithResult(result Result) EventOption {
	return func(e *Event) {
		e.Result = result
	}
}

// WithError records the failure cause. A nil error is a no-op.
func WithError(err error) EventOption {
	return func(e *Event) {
		if err != nil {
			e.Error = err.Error()
		}
	}
}

// WithActor overrides the actor label.
func WithActor(actor string) EventOption {
	return func(e *Event) {
		if actor != "" {
			e.Actor = actor
		}
	}
}

// WithTenant attributes the event to a tenant outside a request context,
// for example from a background worker.
func WithTenant(tenantID string) EventOption {
	return func(e *Event) {
		if tenantID == "" {
			return
		}
		e.TenantID = tenantID
		e.Actor = TenantActor(tenantID)
	}
}

// WithSessionID links the event to a conversation session.
func WithSessionID(sessionID string) EventOption {
	return func(e *Event) {
		e.SessionID = sessionID
	}
}
