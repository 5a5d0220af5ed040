package searchreplace

import "testing"

func TestContains(t *testing.T) {
	cases := []struct {
		value, search string
		caseSensitive bool
		want          bool
	}{
		{"Hello World", "hello", false, true},
		{"Hello World", "hello", true, false},
		{"Hello World", "Hello", true, true},
		{"Hello World", "o W", true, true},
		{"Hello World", "xyz", false, false},
		{"ACME LAW", "acme law", false, true},
	}
	for _, tc := range cases {
		if got := Contains(tc.value, tc.search, tc.caseSensitive); got != tc.want {
			t.Fatalf("Contains(%q, %q, %v) = %v, want %v", tc.value, tc.search, tc.caseSensitive, got, tc.want)
		}
	}
}

func TestReplaceCaseSensitive(t *testing.T) {
	got := Replace("Acme Law and Acme Law again", "Acme Law", "Liberty Law", true)
	if got != "Liberty Law and Liberty Law again" {
		t.Fatalf("unexpected result: %q", got)
	}

	// Non-matching case is left alone.
	got = Replace("ACME LAW", "Acme Law", "Liberty Law", true)
	if got != "ACME LAW" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestReplaceCaseInsensitive(t *testing.T) {
	// Every case variant is substituted; the replacement keeps its own casing.
	got := Replace("ACME LAW and acme law", "Acme Law", "Liberty Law", false)
	if got != "Liberty Law and Liberty Law" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestReplaceTreatsSearchAsLiteral(t *testing.T) {
	got := Replace("Call (555) 014-2200 today", "(555) 014-2200", "(555) 900-1000", false)
	if got != "Call (555) 900-1000 today" {
		t.Fatalf("regexp metacharacters not escaped: %q", got)
	}

	got = Replace("a.c abc", "a.c", "X", false)
	if got != "X abc" {
		t.Fatalf("dot must not match any character: %q", got)
	}
}

func TestReplacementTextIsLiteral(t *testing.T) {
	got := Replace("price", "price", "$1.00", false)
	if got != "$1.00" {
		t.Fatalf("replacement must not be expanded: %q", got)
	}
}

func TestReplaceRepeatedOccurrences(t *testing.T) {
	got := Replace("aaa", "aa", "b", true)
	if got != "ba" {
		t.Fatalf("expected left-to-right non-overlapping replacement, got %q", got)
	}
}
