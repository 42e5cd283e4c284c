package utils

import "testing"

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, limit  int
		wantP, wantL int
	}{
		{0, 0, 1, 10},
		{3, 25, 3, 25},
		{2, 1000, 2, 100},
		{-4, -1, 1, 10},
	}
	for _, tt := range tests {
		p, l := NormalizePage(tt.page, tt.limit)
		if p != tt.wantP || l != tt.wantL {
			t.Errorf("NormalizePage(%d,%d): Expected (%d,%d), got (%d,%d)", tt.page, tt.limit, tt.wantP, tt.wantL, p, l)
		}
	}
}

func TestPages(t *testing.T) {
	if Pages(0, 10) != 0 || Pages(10, 10) != 1 || Pages(11, 10) != 2 {
		t.Fatalf("unexpected page math")
	}
}
