package digest

import "testing"

func TestTreeIdentityStable(t *testing.T) {
	a := TreeIdentity("Account", "object")
	b := TreeIdentity("Account", "object")
	if a != b {
		t.Fatalf("digest not stable across calls: %+v != %+v", a, b)
	}
}

func TestTreeIdentityDisjoint(t *testing.T) {
	names := []struct{ grove, tree string }{
		{"Account", "object"},
		{"Account", "index:ledger"},
		{"Account", "index:id"},
		{"Transfer", "object"},
	}
	seen := make(map[ID]string)
	for _, n := range names {
		id := TreeIdentity(n.grove, n.tree)
		if prev, ok := seen[id]; ok {
			t.Fatalf("digest collision between %s and %s/%s", prev, n.grove, n.tree)
		}
		seen[id] = n.grove + "/" + n.tree
	}
}

func TestTreeIdentityNoConcatenationCollision(t *testing.T) {
	// "ab","c" must not collide with "a","bc".
	a := TreeIdentity("ab", "c")
	b := TreeIdentity("a", "bc")
	if a == b {
		t.Fatalf("expected distinct digests for differently-split names")
	}
}
