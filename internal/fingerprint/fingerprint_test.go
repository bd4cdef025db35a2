package fingerprint

import "testing"

func TestTextStable(t *testing.T) {
	// WHAT: Same input always produces the same fingerprint.
	// WHY: Dedup across restarts relies on fingerprint stability.
	a := Text("hello")
	b := Text("hello")
	if a != b {
		t.Errorf("fingerprints differ: %q vs %q", a, b)
	}
	if a == Text("world") {
		t.Error("distinct inputs collided")
	}
}

func TestFileSetOrderIndependent(t *testing.T) {
	// WHAT: File-set fingerprint ignores capture order but not membership.
	// WHY: [A,B] then [B,A] is a duplicate capture; [A] then [A,B] is not.
	ab := FileSet([]string{`C:\docs\A.txt`, `C:\docs\B.txt`})
	ba := FileSet([]string{`C:\docs\B.txt`, `C:\docs\A.txt`})
	if ab != ba {
		t.Errorf("order changed fingerprint: %q vs %q", ab, ba)
	}
	a := FileSet([]string{`C:\docs\A.txt`})
	if a == ab {
		t.Error("subset matched superset")
	}
}

func TestFileSetCaseInsensitive(t *testing.T) {
	// WHAT: Path comparison is case-insensitive.
	// WHY: The source filesystem treats A.TXT and a.txt as the same file.
	if FileSet([]string{"/tmp/A.TXT"}) != FileSet([]string{"/tmp/a.txt"}) {
		t.Error("case changed fingerprint")
	}
}

func TestNormalizeFileSetDoesNotMutate(t *testing.T) {
	// WHAT: NormalizeFileSet leaves the input slice untouched.
	// WHY: Original order is persisted for clipboard re-emission.
	in := []string{"b", "A"}
	NormalizeFileSet(in)
	if in[0] != "b" || in[1] != "A" {
		t.Errorf("input mutated: %v", in)
	}
}
