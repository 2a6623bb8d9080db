package approval

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Chain is the ordered list of steps a request passes through. A valid chain
// holds at least one actionable step, no duplicates, and ends with COMPLETED.
type Chain []Step

const chainSeparator = ","

// NewChain appends the COMPLETED sentinel to base and validates the result.
func NewChain(base ...Step) (Chain, error) {
	if err := ValidateBase(base); err != nil {
		return nil, err
	}
	chain := make(Chain, 0, len(base)+1)
	chain = append(chain, base...)
	return append(chain, StepCompleted), nil
}

// ValidateBase checks the actionable part of a chain, without the sentinel.
func ValidateBase(base []Step) error {
	if len(base) == 0 {
		return ErrMalformedChain.WithMessage("approval chain has no actionable steps")
	}
	seen := make(map[Step]bool, len(base))
	for _, s := range base {
		if !s.IsActionable() {
			return ErrMalformedChain.WithMessage(fmt.Sprintf("step %q cannot appear inside an approval chain", s))
		}
		if seen[s] {
			return ErrMalformedChain.WithMessage(fmt.Sprintf("step %q appears twice in the approval chain", s))
		}
		seen[s] = true
	}
	return nil
}

func (c Chain) Validate() error {
	if len(c) < 2 || c[len(c)-1] != StepCompleted {
		return ErrMalformedChain.WithMessage("approval chain must end with COMPLETED")
	}
	return ValidateBase(c[:len(c)-1])
}

// Base returns the actionable steps, without the sentinel.
func (c Chain) Base() []Step {
	if len(c) > 0 && c[len(c)-1] == StepCompleted {
		return append([]Step(nil), c[:len(c)-1]...)
	}
	return append([]Step(nil), c...)
}

func (c Chain) Contains(s Step) bool {
	return c.indexOf(s) >= 0
}

func (c Chain) indexOf(s Step) int {
	for i, step := range c {
		if step == s {
			return i
		}
	}
	return -1
}

func (c Chain) String() string {
	parts := make([]string, len(c))
	for i, s := range c {
		parts[i] = string(s)
	}
	return strings.Join(parts, chainSeparator)
}

// ParseChain parses the stored form and validates it against the step vocabulary.
func ParseChain(raw string) (Chain, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMalformedChain.WithMessage("approval chain is empty")
	}
	parts := strings.Split(raw, chainSeparator)
	chain := make(Chain, 0, len(parts))
	for _, p := range parts {
		s, err := ParseStep(p)
		if err != nil {
			return nil, ErrMalformedChain.WithMessage(fmt.Sprintf("approval chain contains unknown step %q", p))
		}
		chain = append(chain, s)
	}
	if err := chain.Validate(); err != nil {
		return nil, err
	}
	return chain, nil
}

func (c Chain) Value() (driver.Value, error) {
	if len(c) == 0 {
		return "", nil
	}
	return c.String(), nil
}

func (c *Chain) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		*c = nil
		return nil
	default:
		return fmt.Errorf("approval: cannot scan %T into Chain", src)
	}
	parsed, err := ParseChain(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (Chain) GormDataType() string {
	return "text"
}
