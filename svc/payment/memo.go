package payment

import (
	"fmt"
	"strings"

	"github.com/bankvoiceai/platform/svc/subscription"
)

// Memo tags bind an on-chain transfer back to a tenant and plan. The memo
// is the only link between a payment and the subscription it buys, so the
// format is pipe-delimited and parsed strictly.
const (
	MemoTag        = "BANKVOICEAI"
	MemoUpgradeTag = "BANKVOICEAI_UPGRADE"

	memoSeparator = "|"
	memoSegments  = 3
)

// BuildMemo returns the memo a tenant must attach to a subscription payment.
func BuildMemo(tenantID string, plan subscription.PlanID) string {
	return strings.Join([]string{MemoTag, tenantID, string(plan)}, memoSeparator)
}

// BuildUpgradeMemo returns the memo for a plan upgrade payment.
func BuildUpgradeMemo(tenantID string, plan subscription.PlanID) string {
	return strings.Join([]string{MemoUpgradeTag, tenantID, string(plan)}, memoSeparator)
}

// ParseMemo splits a payment memo into its tag, tenant id, and plan.
// Returns ErrMalformedMemo when the memo is not exactly three non-empty
// pipe-delimited segments with a known tag.
func ParseMemo(memo string) (tag, tenantID string, plan subscription.PlanID, err error) {
	parts := strings.Split(memo, memoSeparator)
	if len(parts) != memoSegments {
		return "", "", "", fmt.Errorf("%w: expected %d segments, got %d", ErrMalformedMemo, memoSegments, len(parts))
	}
	for _, part := range parts {
		if part == "" {
			return "", "", "", fmt.Errorf("%w: empty segment", ErrMalformedMemo)
		}
	}
	if parts[0] != MemoTag && parts[0] != MemoUpgradeTag {
		return "", "", "", fmt.Errorf("%w: unknown tag %q", ErrMalformedMemo, parts[0])
	}
	return parts[0], parts[1], subscription.PlanID(parts[2]), nil
}
