package search

import "testing"

func strptr(s string) *string { return &s }

func TestMatcher_CaseInsensitive(t *testing.T) {
	m := NewMatcher("BUY")
	if !m.Match("Buy milk", nil) {
		t.Fatalf("title match failed")
	}
	if !m.Match("Walk", strptr("buy a leash")) {
		t.Fatalf("details match failed")
	}
	if m.Match("Sleep", nil) {
		t.Fatalf("unexpected match")
	}
}

func TestMatcher_NilDetailsNeverMatches(t *testing.T) {
	m := NewMatcher("leash")
	if m.Match("Walk", nil) {
		t.Fatalf("nil details must not match")
	}
}

func TestMatcher_DiacriticInsensitive(t *testing.T) {
	m := NewMatcher("cafe")
	if !m.Match("Café run", nil) {
		t.Fatalf("diacritics should be ignored")
	}
	if !NewMatcher("café").Match("cafe run", nil) {
		t.Fatalf("query diacritics should be ignored too")
	}
}

func TestMatcher_EmptyQueryMatchesEverything(t *testing.T) {
	for _, q := range []string{"", "   ", "\t"} {
		m := NewMatcher(q)
		if !m.Empty() {
			t.Fatalf("query %q should be empty", q)
		}
		if !m.Match("anything", nil) {
			t.Fatalf("empty query must match")
		}
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Grüße", "grusse"}, // ü loses the umlaut, ß folds to ss
		{"ABC", "abc"},
		{"déjà vu", "deja vu"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Fatalf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
