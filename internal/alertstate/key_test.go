package alertstate

import "testing"

func TestDigestIsCaseInsensitiveOnUser(t *testing.T) {
	a := digest("Impossible travel", "Alice@Example.com")
	b := digest("Impossible travel", "alice@example.com")
	if a != b {
		t.Fatalf("expected case-insensitive digest, got %q != %q", a, b)
	}
}

func TestDigestDiffersByRuleOrUser(t *testing.T) {
	base := digest("rule-a", "alice")
	if base == digest("rule-b", "alice") {
		t.Fatal("expected different rule names to produce different digests")
	}
	if base == digest("rule-a", "bob") {
		t.Fatal("expected different users to produce different digests")
	}
}

func TestDigestStableLength(t *testing.T) {
	if len(digest("x", "")) != digestLength {
		t.Fatalf("expected digest length %d", digestLength)
	}
}

func TestDigestHandlesEmptyUser(t *testing.T) {
	if digest("rule", "") == "" {
		t.Fatal("expected a non-empty digest for an empty user")
	}
}
