package source

import (
	"testing"
)

func TestSpan_Cover(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Span
		expected Span
	}{
		{
			name:     "disjoint spans",
			a:        Span{File: 1, Start: 2, End: 4},
			b:        Span{File: 1, Start: 10, End: 12},
			expected: Span{File: 1, Start: 2, End: 12},
		},
		{
			name:     "nested span",
			a:        Span{File: 1, Start: 2, End: 20},
			b:        Span{File: 1, Start: 5, End: 6},
			expected: Span{File: 1, Start: 2, End: 20},
		},
		{
			name:     "different files keep receiver",
			a:        Span{File: 1, Start: 2, End: 4},
			b:        Span{File: 2, Start: 0, End: 40},
			expected: Span{File: 1, Start: 2, End: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Cover(tt.b); got != tt.expected {
				t.Errorf("Cover() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestSpan_Relations(t *testing.T) {
	outer := Span{File: 0, Start: 10, End: 20}
	tests := []struct {
		name     string
		other    Span
		encloses bool
		overlaps bool
	}{
		{"inside", Span{Start: 12, End: 15}, true, true},
		{"same", Span{Start: 10, End: 20}, true, true},
		{"left overlap", Span{Start: 5, End: 11}, false, true},
		{"touching right", Span{Start: 20, End: 25}, false, false},
		{"other file", Span{File: 3, Start: 12, End: 15}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outer.Encloses(tt.other); got != tt.encloses {
				t.Errorf("Encloses() = %v, want %v", got, tt.encloses)
			}
			if got := outer.Overlaps(tt.other); got != tt.overlaps {
				t.Errorf("Overlaps() = %v, want %v", got, tt.overlaps)
			}
		})
	}
}

func TestSpan_ContainsAndClamp(t *testing.T) {
	s := Span{Start: 3, End: 6}
	if !s.Contains(3) || !s.Contains(5) || s.Contains(6) {
		t.Fatalf("Contains is not half-open for %v", s)
	}
	if got := (Span{Start: 8, End: 30}).Clamp(10); got.Start != 8 || got.End != 10 {
		t.Errorf("Clamp() = %+v", got)
	}
	if got := (Span{Start: 12, End: 30}).Clamp(10); !got.Empty() || got.End != 10 {
		t.Errorf("Clamp() past end = %+v", got)
	}
}
