package approval

import "fmt"

// First returns the initial step of the chain.
func (c Chain) First() Step {
	if len(c) == 0 {
		return StepCompleted
	}
	return c[0]
}

// Next returns the step after current, which is COMPLETED after the last real step.
func (c Chain) Next(current Step) (Step, error) {
	i := c.indexOf(current)
	if i < 0 {
		return "", ErrStepNotInChain.WithMessage(fmt.Sprintf("step %s is not part of chain %s", current, c))
	}
	if i == len(c)-1 {
		return "", ErrStepNotInChain.WithMessage(fmt.Sprintf("chain %s has no step after %s", c, current))
	}
	return c[i+1], nil
}

// Previous returns the step before current. The first step has no predecessor.
func (c Chain) Previous(current Step) (Step, bool) {
	i := c.indexOf(current)
	if i <= 0 {
		return "", false
	}
	return c[i-1], true
}

// IsComplete reports whether current is the terminal position of the chain.
func (c Chain) IsComplete(current Step) bool {
	if current == StepCompleted {
		return true
	}
	return len(c) > 0 && c.indexOf(current) == len(c)-1
}

// ValidateTransition allows moving to the next step, or to COMPLETED from any
// actionable step of the chain (rejection). Anything else is a step skip.
func (c Chain) ValidateTransition(from, to Step) error {
	if from.IsTerminal() || !c.Contains(from) {
		return ErrStepNotInChain.WithMessage(fmt.Sprintf("cannot transition from %s in chain %s", from, c))
	}
	if to == StepCompleted {
		return nil
	}
	if !c.Contains(to) {
		return ErrStepNotInChain.WithMessage(fmt.Sprintf("step %s is not part of chain %s", to, c))
	}
	next, err := c.Next(from)
	if err != nil {
		return err
	}
	if to != next {
		return ErrStepSkipped.WithMessage(fmt.Sprintf("cannot move from %s to %s, next step is %s", from, to, next))
	}
	return nil
}
