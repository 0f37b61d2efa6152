package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// FilterAction defines what happens to a matched metadata field.
type FilterAction string

const (
	FilterRemove FilterAction = "remove"
	FilterMask   FilterAction = "mask"
	FilterHash   FilterAction = "hash"
)

// FilterRule binds an action to a field name or wildcard pattern.
type FilterRule struct {
	Action FilterAction
}

// defaultSensitiveFields covers the identifiers that show up in bank call
// metadata. Secrets are removed outright; account-style numbers keep their
// last four digits; caller identifiers are reduced to digests usable for
// correlation but not identification.
var defaultSensitiveFields = map[string]FilterRule{
	"password":       {Action: FilterRemove},
	"secret":         {Action: FilterRemove},
	"api_key":        {Action: FilterRemove},
	"*_token":        {Action: FilterRemove},
	"*_secret":       {Action: FilterRemove},
	"cvv":            {Action: FilterRemove},
	"pin":            {Action: FilterRemove},
	"ssn":            {Action: FilterMask},
	"account_number": {Action: FilterMask},
	"card_number":    {Action: FilterMask},
	"routing_number": {Action: FilterMask},
	"phone":          {Action: FilterMask},
	"phone_number":   {Action: FilterMask},
	"caller_id":      {Action: FilterHash},
	"email":          {Action: FilterHash},
	"date_of_birth":  {Action: FilterHash},
	"dob":            {Action: FilterHash},
}

// MetadataFilter rewrites sensitive metadata fields before events reach
// storage.
type MetadataFilter struct {
	customRules   map[string]FilterRule
	allowedFields map[string]bool
	useDefaults   bool
}

// FilterOption configures MetadataFilter behavior.
type FilterOption func(*MetadataFilter)

// NewMetadataFilter creates a filter with the default sensitive-field rules
// enabled.
func NewMetadataFilter(opts ...FilterOption) *MetadataFilter {
	f := &MetadataFilter{
		customRules:   make(map[string]FilterRule),
		allowedFields: make(map[string]bool),
		useDefaults:   true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// WithFilterRule adds a rule for a field name or wildcard pattern
// ("*_token", "card*"). Custom rules take precedence over the defaults.
func WithFilterRule(field string, action FilterAction) FilterOption {
	return func(f *MetadataFilter) {
		f.customRules[strings.ToLower(field)] = FilterRule{Action: action}
	}
}

// WithAllowedField exempts a field from all filtering.
func WithAllowedField(field string) FilterOption {
	return func(f *MetadataFilter) {
		f.allowedFields[strings.ToLower(field)] = true
	}
}

// WithoutDefaults disables the built-in sensitive-field rules. Custom rules
// still apply.
func WithoutDefaults() FilterOption {
	return func(f *MetadataFilter) {
		f.useDefaults = false
	}
}

// Filter returns a copy of metadata with all matching rules applied.
// Removed fields are absent from the result.
func (f *MetadataFilter) Filter(metadata map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}

	filtered := make(map[string]any, len(metadata))
	for key, value := range metadata {
		lower := strings.ToLower(key)

		if f.allowedFields[lower] {
			filtered[key] = value
			continue
		}
		if rule, ok := f.lookupRule(lower); ok {
			if result := applyRule(rule, value); result != nil {
				filtered[key] = result
			}
			continue
		}
		filtered[key] = value
	}
	return filtered
}

// lookupRule resolves the rule for a field: custom exact, custom wildcard,
// default exact, default wildcard.
func (f *MetadataFilter) lookupRule(key string) (FilterRule, bool) {
	if rule, ok := f.customRules[key]; ok {
		return rule, true
	}
	if rule, ok := matchWildcard(key, f.customRules); ok {
		return rule, true
	}
	if !f.useDefaults {
		return FilterRule{}, false
	}
	if rule, ok := defaultSensitiveFields[key]; ok {
		return rule, true
	}
	return matchWildcard(key, defaultSensitiveFields)
}

func matchWildcard(key string, rules map[string]FilterRule) (FilterRule, bool) {
	for pattern, rule := range rules {
		if !strings.Contains(pattern, "*") {
			continue
		}
		if matchesPattern(key, pattern) {
			return rule, true
		}
	}
	return FilterRule{}, false
}

func matchesPattern(key, pattern string) bool {
	switch {
	case strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*"):
		return strings.Contains(key, strings.Trim(pattern, "*"))
	case strings.HasPrefix(pattern, "*"):
		return strings.HasSuffix(key, pattern[1:])
	case strings.HasSuffix(pattern, "*"):
		return strings.HasPrefix(key, pattern[:len(pattern)-1])
	}
	return false
}

// applyRule returns the replacement value, or nil when the field must be
// dropped.
func applyRule(rule FilterRule, value any) any {
	switch rule.Action {
	case FilterRemove:
		return nil
	case FilterMask:
		return maskValue(value)
	case FilterHash:
		return hashValue(value)
	default:
		return value
	}
}

// maskValue keeps the last four characters, the convention for account and
// card numbers on statements.
func maskValue(value any) string {
	str := fmt.Sprintf("%v", value)
	if len(str) <= 4 {
		return strings.Repeat("*", len(str))
	}
	return strings.Repeat("*", len(str)-4) + str[len(str)-4:]
}

// hashValue reduces the value to a short SHA-256 digest. Enough for
// correlation across events, useless for recovering the original.
func hashValue(value any) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%v", value))
	return hex.EncodeToString(sum[:])[:16]
}
