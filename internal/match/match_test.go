package match

import "testing"

func TestFragmentsUnordered(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		frags []string
		want  bool
	}{
		{name: "both present reversed", line: "bar and foo together", frags: []string{"foo", "bar"}, want: true},
		{name: "one missing", line: "only foo here", frags: []string{"foo", "bar"}, want: false},
		{name: "substring of larger token", line: "mainline pressure", frags: []string{"line", "press"}, want: true},
		{name: "overlapping fragments", line: "ababa", frags: []string{"aba", "bab"}, want: true},
		{name: "three fragments", line: "TankA Level High Alarm", frags: []string{"TankA", "Level", "High"}, want: true},
		{name: "empty fragment list", line: "anything", frags: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fragments(tt.line, tt.frags, false); got != tt.want {
				t.Errorf("Fragments(%q, %v, false) = %v, want %v", tt.line, tt.frags, got, tt.want)
			}
		})
	}
}

func TestFragmentsOrdered(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		frags []string
		want  bool
	}{
		{name: "in order", line: "foo then bar", frags: []string{"foo", "bar"}, want: true},
		{name: "out of order", line: "bar then foo", frags: []string{"foo", "bar"}, want: false},
		{name: "overlap rejected", line: "ababa", frags: []string{"aba", "aba"}, want: false},
		{name: "non overlapping repeats", line: "aba aba", frags: []string{"aba", "aba"}, want: true},
		{name: "adjacent", line: "foobar", frags: []string{"foo", "bar"}, want: true},
		{name: "second missing after cursor", line: "bar foo", frags: []string{"foo", "bar"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fragments(tt.line, tt.frags, true); got != tt.want {
				t.Errorf("Fragments(%q, %v, true) = %v, want %v", tt.line, tt.frags, got, tt.want)
			}
		})
	}
}

func TestLineCaseFolding(t *testing.T) {
	if !Line("TANKA LEVEL HIGH", []string{"tanka", "high"}, true, false) {
		t.Error("case-insensitive match failed")
	}
	if Line("TANKA LEVEL HIGH", []string{"tanka", "high"}, false, false) {
		t.Error("case-sensitive match unexpectedly succeeded")
	}
	if !Line("foo then bar", []string{"FOO", "BAR"}, true, true) {
		t.Error("case-insensitive ordered match failed")
	}
}
