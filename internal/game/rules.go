// internal/game/rules.go
package game

import "fmt"

// Rules holds the table parameters a host may tune before dealing.
type Rules struct {
	HandSize int `json:"handSize"` // cards dealt to each seat
	MaxAces  int `json:"maxAces"`  // a hand holding this many aces may not draw
}

// DefaultRules returns the standard table: 7-card hands, draw blocked at 2 aces.
func DefaultRules() Rules {
	return Rules{HandSize: 7, MaxAces: 2}
}

// Update applies the provided overrides. Missing keys keep their old value.
func (rules *Rules) Update(newRules map[string]interface{}) error {
	assignInt := func(field *int, key string, minVal, maxVal int) error {
		val, exists := newRules[key]
		if !exists || val == nil {
			return nil
		}
		var n int
		switch v := val.(type) {
		case float64: // JSON numbers decode as float64
			n = int(v)
		case int:
			n = v
		default:
			return fmt.Errorf("invalid type for %s", key)
		}
		if n < minVal || n > maxVal {
			return fmt.Errorf("%s must be between %d and %d", key, minVal, maxVal)
		}
		*field = n
		return nil
	}

	if err := assignInt(&rules.HandSize, "handSize", 1, 12); err != nil {
		return err
	}
	if err := assignInt(&rules.MaxAces, "maxAces", 1, 4); err != nil {
		return err
	}
	return nil
}
