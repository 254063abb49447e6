// Package version gates acceptance of a capsule, ledger entry, or manifest
// by comparing the semantic version string it carries against what this
// process supports.
package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Gate accepts versions satisfying a semver constraint, e.g. ">= 1.0.0, < 2.0.0".
type Gate struct {
	constraint *semver.Constraints
	raw        string
}

// NewGate compiles constraintStr into a Gate.
func NewGate(constraintStr string) (*Gate, error) {
	c, err := semver.NewConstraint(constraintStr)
	if err != nil {
		return nil, fmt.Errorf("version: invalid constraint %q: %w", constraintStr, err)
	}
	return &Gate{constraint: c, raw: constraintStr}, nil
}

// Accepts reports whether verStr satisfies the gate's constraint.
func (g *Gate) Accepts(verStr string) (bool, error) {
	v, err := semver.NewVersion(verStr)
	if err != nil {
		return false, fmt.Errorf("version: invalid version %q: %w", verStr, err)
	}
	return g.constraint.Check(v), nil
}

// Check returns an error if verStr does not satisfy the gate's constraint.
func (g *Gate) Check(verStr string) error {
	ok, err := g.Accepts(verStr)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("version: %s does not satisfy constraint %s", verStr, g.raw)
	}
	return nil
}

// DenyRollback returns an error if candidate is strictly older than current.
// Both must be valid semver strings.
func DenyRollback(current, candidate string) error {
	cur, err := semver.NewVersion(current)
	if err != nil {
		return fmt.Errorf("version: invalid current version %q: %w", current, err)
	}
	cand, err := semver.NewVersion(candidate)
	if err != nil {
		return fmt.Errorf("version: invalid candidate version %q: %w", candidate, err)
	}
	if cand.LessThan(cur) {
		return fmt.Errorf("version: rollback from %s to %s denied", cur, cand)
	}
	return nil
}
