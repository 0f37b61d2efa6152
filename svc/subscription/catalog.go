package subscription

import (
	"cmp"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yml
var defaultCatalogYAML []byte

// Catalog is the validated set of plans the platform sells.
// Immutable after load; safe for concurrent reads.
type Catalog struct {
	plans map[PlanID]Plan
}

// LoadCatalog reads a YAML plan catalog from path. An empty path loads the
// embedded defaults. The catalog is validated before it is returned.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return parseCatalog(defaultCatalogYAML)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, errors.Join(ErrFailedToLoadCatalog, err)
	}
	return parseCatalog(data)
}

// DefaultCatalog returns the embedded plan catalog.
// Panics only if the embedded file is broken, which a unit test guards.
func DefaultCatalog() Catalog {
	catalog, err := parseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("subscription: embedded catalog invalid: %v", err))
	}
	return catalog
}

func parseCatalog(data []byte) (Catalog, error) {
	var file struct {
		Plans map[PlanID]Plan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Catalog{}, errors.Join(ErrFailedToLoadCatalog, err)
	}

	for id, plan := range file.Plans {
		plan.ID = id
		file.Plans[id] = plan
	}

	if err := validateCatalog(file.Plans); err != nil {
		return Catalog{}, err
	}
	return Catalog{plans: file.Plans}, nil
}

// validateCatalog ensures plan definitions are internally consistent.
// Catches configuration mistakes at startup instead of mid-request.
func validateCatalog(plans map[PlanID]Plan) error {
	if len(plans) == 0 {
		return errors.Join(ErrInvalidCatalog, errors.New("catalog has no plans"))
	}

	known := KnownCapabilities()
	for id, plan := range plans {
		if plan.PriceFET < 0 {
			return errors.Join(ErrInvalidCatalog,
				fmt.Errorf("plan %s has negative price: %d", id, plan.PriceFET))
		}
		if plan.CallsPerDay < Unlimited || plan.CallsPerDay == 0 {
			return errors.Join(ErrInvalidCatalog,
				fmt.Errorf("plan %s has invalid daily call ceiling: %d", id, plan.CallsPerDay))
		}
		if plan.MaxAPIKeys < Unlimited || plan.MaxAPIKeys == 0 {
			return errors.Join(ErrInvalidCatalog,
				fmt.Errorf("plan %s has invalid API key ceiling: %d", id, plan.MaxAPIKeys))
		}
		if len(plan.Capabilities) == 0 {
			return errors.Join(ErrInvalidCatalog,
				fmt.Errorf("plan %s has no capabilities", id))
		}
		for _, capability := range plan.Capabilities {
			if !slices.Contains(known, capability) {
				return errors.Join(ErrInvalidCatalog,
					fmt.Errorf("plan %s references unknown capability %q", id, capability))
			}
		}
		if plan.TrialDays < 0 {
			return errors.Join(ErrInvalidCatalog,
				fmt.Errorf("plan %s has negative trial days: %d", id, plan.TrialDays))
		}
		if plan.AnalyticsDays <= 0 {
			return errors.Join(ErrInvalidCatalog,
				fmt.Errorf("plan %s has invalid analytics window: %d", id, plan.AnalyticsDays))
		}
	}
	return nil
}

// Plan looks up a plan by id.
func (c Catalog) Plan(id PlanID) (Plan, bool) {
	plan, ok := c.plans[id]
	return plan, ok
}

// Plans returns every plan ordered by monthly price, free tier first.
func (c Catalog) Plans() []Plan {
	plans := make([]Plan, 0, len(c.plans))
	for _, plan := range c.plans {
		plans = append(plans, plan)
	}
	slices.SortFunc(plans, func(a, b Plan) int {
		if c := cmp.Compare(a.PriceFET, b.PriceFET); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return plans
}
