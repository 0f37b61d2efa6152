package subscription

// Capability names a conversational specialist a tenant may route traffic to.
type Capability string

const (
	CapabilityCustomerService Capability = "customer_service"
	CapabilityFraudDetection  Capability = "fraud_detection"
	CapabilityOnboarding      Capability = "onboarding"
	CapabilityCollections     Capability = "collections"
	CapabilitySales           Capability = "sales"
	CapabilityCompliance      Capability = "compliance"
	CapabilityOrchestrator    Capability = "orchestrator"
)

// KnownCapabilities returns every capability the platform can route.
// Catalog validation rejects plans that reference anything else.
func KnownCapabilities() []Capability {
	return []Capability{
		CapabilityCustomerService,
		CapabilityFraudDetection,
		CapabilityOnboarding,
		CapabilityCollections,
		CapabilitySales,
		CapabilityCompliance,
		CapabilityOrchestrator,
	}
}

// Unlimited marks a plan ceiling with no cap (-1 survives JSON and SQL round-trips).
const Unlimited int64 = -1

// PlanID identifies a plan in the catalog.
type PlanID string

const (
	PlanTrial      PlanID = "trial"
	PlanStarter    PlanID = "starter"
	PlanGrowth     PlanID = "growth"
	PlanEnterprise PlanID = "enterprise"
)

// Status represents the lifecycle state of a subscription.
// Expiry is a derived predicate (IsActive), not a stored transition.
type Status string

const (
	StatusTrial     Status = "trial"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// ComplianceMode controls whether regulatory disclosures are injected
// into conversational turns.
type ComplianceMode string

const (
	ComplianceStrict    ComplianceMode = "strict"
	ComplianceAssistive ComplianceMode = "assistive"
)

// Valid reports whether the mode is one of the two supported values.
func (m ComplianceMode) Valid() bool {
	return m == ComplianceStrict || m == ComplianceAssistive
}
