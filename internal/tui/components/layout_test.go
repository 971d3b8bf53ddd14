package components

import "testing"

func TestLayoutRowSumsExactly(t *testing.T) {
	for _, tc := range []struct {
		total, n int
	}{
		{100, 4},
		{101, 4},
		{103, 4},
		{80, 3},
		{7, 2},
	} {
		widths := LayoutRow(tc.total, tc.n)
		if len(widths) != tc.n {
			t.Fatalf("LayoutRow(%d, %d) returned %d widths", tc.total, tc.n, len(widths))
		}
		sum := 0
		for _, w := range widths {
			sum += w
		}
		if sum != tc.total {
			t.Errorf("LayoutRow(%d, %d) sums to %d", tc.total, tc.n, sum)
		}
		// remainder lands on the leading items
		for i := 1; i < len(widths); i++ {
			if widths[i] > widths[i-1] {
				t.Errorf("LayoutRow(%d, %d) widths not front-loaded: %v", tc.total, tc.n, widths)
			}
		}
	}
}

func TestLayoutRowDegenerate(t *testing.T) {
	if got := LayoutRow(100, 0); got != nil {
		t.Fatalf("LayoutRow(100, 0) = %v, want nil", got)
	}
}

func TestCardInnerWidthFloor(t *testing.T) {
	if got := CardInnerWidth(100); got != 96 {
		t.Errorf("CardInnerWidth(100) = %d, want 96", got)
	}
	if got := CardInnerWidth(5); got != 10 {
		t.Errorf("CardInnerWidth(5) = %d, want floor of 10", got)
	}
}

func TestTabIdxByKey(t *testing.T) {
	if idx := TabIdxByKey('p'); idx != 1 {
		t.Errorf("TabIdxByKey('p') = %d, want 1", idx)
	}
	if idx := TabIdxByKey('z'); idx != -1 {
		t.Errorf("TabIdxByKey('z') = %d, want -1", idx)
	}
}
