package version

import "testing"

func TestGateAcceptsWithinConstraint(t *testing.T) {
	g, err := NewGate(">= 1.0.0, < 2.0.0")
	if err != nil {
		t.Fatalf("new gate: %v", err)
	}
	if err := g.Check("1.4.2"); err != nil {
		t.Fatalf("expected 1.4.2 to satisfy constraint: %v", err)
	}
}

func TestGateRejectsOutsideConstraint(t *testing.T) {
	g, err := NewGate(">= 1.0.0, < 2.0.0")
	if err != nil {
		t.Fatalf("new gate: %v", err)
	}
	if err := g.Check("2.0.0"); err == nil {
		t.Fatal("expected 2.0.0 to violate constraint")
	}
}

func TestGateRejectsMalformedVersion(t *testing.T) {
	g, err := NewGate(">= 1.0.0")
	if err != nil {
		t.Fatalf("new gate: %v", err)
	}
	if err := g.Check("not-a-version"); err == nil {
		t.Fatal("expected error for malformed version string")
	}
}

func TestDenyRollbackRejectsOlderVersion(t *testing.T) {
	if err := DenyRollback("1.2.0", "1.1.0"); err == nil {
		t.Fatal("expected rollback to 1.1.0 to be denied")
	}
}

func TestDenyRollbackAllowsNewerOrEqualVersion(t *testing.T) {
	if err := DenyRollback("1.2.0", "1.2.0"); err != nil {
		t.Fatalf("expected equal version to be allowed: %v", err)
	}
	if err := DenyRollback("1.2.0", "1.3.0"); err != nil {
		t.Fatalf("expected newer version to be allowed: %v", err)
	}
}
