package audit

import "testing"

func TestAppendAndVerify(t *testing.T) {
	l := New()
	l.Append("encrypt", "f1", "aa")
	l.Append("decrypt", "f1", "aa")
	l.Append("delete", "f1", "")
	if err := l.Verify(); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got := len(l.Entries()); got != 3 {
		t.Fatalf("got %d entries", got)
	}
}

func TestVerifyDetectsRewrite(t *testing.T) {
	l := New()
	l.Append("encrypt", "f1", "aa")
	l.Append("decrypt", "f1", "aa")
	l.entries[0].Op = "delete"
	if err := l.Verify(); err == nil {
		t.Fatal("expected chain verification to fail")
	}
}
