package scraper

import (
	"fmt"
	"strconv"
	"strings"

	"mspro-labs/grid-scout/internal/config"
	"mspro-labs/grid-scout/internal/models"
	"mspro-labs/grid-scout/internal/page"
)

// fact is one labelled figure of a statistic group.
type fact struct {
	Label string
	Value string
	Units string
}

// customersGroup keys each figure by its dashed label. Figures whose label
// mentions "Customers" add up to the total; the rest are money and carry a
// "-($)" suffix. A published total is dropped in favour of the computed one.
func customersGroup(facts []fact) (map[string]float64, float64, error) {
	stats := make(map[string]float64, len(facts))
	var total float64
	for _, f := range facts {
		amount, err := parseAmount(f.Value)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", f.Label, err)
		}
		key := factKey(f.Label)
		if key == models.TotalCustomersKey {
			logger.Printf("Ignoring published %s figure %s", key, f.Value)
			continue
		}
		if strings.Contains(key, "Customers") {
			total += amount
		} else if !strings.HasSuffix(key, "($)") {
			key += "-($)"
		}
		stats[key] = amount
	}
	return stats, total, nil
}

// productionGroup keys each figure as "<label>-<units>".
func productionGroup(facts []fact) (map[string]float64, error) {
	stats := make(map[string]float64, len(facts))
	for _, f := range facts {
		amount, err := parseAmount(f.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Label, err)
		}
		key := factKey(f.Label)
		if u := strings.TrimSpace(f.Units); u != "" {
			key += "-" + u
		}
		stats[key] = amount
	}
	return stats, nil
}

func factKey(label string) string {
	return strings.ReplaceAll(strings.TrimSpace(label), " ", "-")
}

func parseAmount(s string) (float64, error) {
	clean := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, ErrNotNumeric)
	}
	return v, nil
}

// readFacts collects the labelled figures of one group element. Units are
// optional.
func readFacts(group page.Element, sel config.ProviderSelectors) ([]fact, error) {
	items, err := group.FindAll(sel.FactItems)
	if err != nil {
		return nil, err
	}
	facts := make([]fact, 0, len(items))
	for _, item := range items {
		label, err := page.Text(item, sel.FactLabel)
		if err != nil {
			return nil, err
		}
		value, err := page.Text(item, sel.FactValue)
		if err != nil {
			return nil, err
		}
		f := fact{Label: label, Value: value}
		if sel.FactUnits != "" {
			if u, ok, err := page.Lookup(item, sel.FactUnits); err != nil {
				return nil, err
			} else if ok {
				if f.Units, err = u.Text(); err != nil {
					return nil, err
				}
			}
		}
		facts = append(facts, f)
	}
	return facts, nil
}
