package bid

import "testing"

func TestFee(t *testing.T) {
	tests := []struct {
		price int
		want  int
	}{
		{0, 0},
		{100, 5},
		{1500, 75},
		{99, 4}, // floored, not rounded
		{-10, 0},
	}
	for _, tt := range tests {
		if got := Fee(tt.price); got != tt.want {
			t.Errorf("Fee(%d) = %d, want %d", tt.price, got, tt.want)
		}
	}
}

func TestBreakEven(t *testing.T) {
	tests := []struct {
		price, party int
		want         int
	}{
		// 1500 gold, fee 75, net 1425.
		{1500, 4, 1068},  // floor(1425 * 3 / 4)
		{1500, 8, 1246},  // floor(1425 * 7 / 8)
		{1500, 16, 1335}, // floor(1425 * 15 / 16)
		{1500, 2, 712},   // floor(1425 / 2)
		{0, 4, 0},
	}
	for _, tt := range tests {
		if got := BreakEven(tt.price, tt.party); got != tt.want {
			t.Errorf("BreakEven(%d, %d) = %d, want %d", tt.price, tt.party, got, tt.want)
		}
	}
}

func TestDirectUse(t *testing.T) {
	tests := []struct {
		price, party int
		want         int
	}{
		{1500, 4, 1125},
		{1500, 8, 1312}, // floor(1500 * 7 / 8)
		{100, 2, 50},
	}
	for _, tt := range tests {
		if got := DirectUse(tt.price, tt.party); got != tt.want {
			t.Errorf("DirectUse(%d, %d) = %d, want %d", tt.price, tt.party, got, tt.want)
		}
	}
}

func TestDirectUseNeverBelowBreakEven(t *testing.T) {
	// Keeping the item skips the fee, so the direct-use point is always
	// at least the resale break-even.
	for _, price := range []int{1, 10, 99, 100, 1500, 123456} {
		for p := MinPartySize; p <= MaxPartySize; p++ {
			if du, be := DirectUse(price, p), BreakEven(price, p); du < be {
				t.Fatalf("DirectUse(%d,%d)=%d < BreakEven=%d", price, p, du, be)
			}
		}
	}
}

func TestPreempt(t *testing.T) {
	if got := Preempt(1068); got != 971 {
		t.Fatalf("Preempt(1068) = %d, want 971", got)
	}
	if got := Preempt(0); got != 0 {
		t.Fatalf("Preempt(0) = %d, want 0", got)
	}
}

func TestPartySizeClamped(t *testing.T) {
	if got, want := BreakEven(1500, 1), BreakEven(1500, 2); got != want {
		t.Fatalf("party below minimum not clamped: %d != %d", got, want)
	}
	if got, want := BreakEven(1500, 99), BreakEven(1500, 16); got != want {
		t.Fatalf("party above maximum not clamped: %d != %d", got, want)
	}
}

func TestCalculate(t *testing.T) {
	q := Calculate(1500, 4)

	if q.Fee != 75 || q.BreakEven != 1068 || q.DirectUse != 1125 || q.Preempt != 971 {
		t.Fatalf("quote = %+v", q)
	}
	if q.PartySize != 4 {
		t.Fatalf("party = %d", q.PartySize)
	}

	// round(1068/1.025), round(1068/1.05), round(1068/1.075)
	wantBids := [3]int{1042, 1017, 993}
	for i, tier := range q.Tiers {
		if tier.Bid != wantBids[i] {
			t.Errorf("tier %.0f%% bid = %d, want %d", tier.Ratio*100, tier.Bid, wantBids[i])
		}
		if tier.Margin != q.BreakEven-tier.Bid {
			t.Errorf("tier %.0f%% margin = %d, want %d", tier.Ratio*100, tier.Margin, q.BreakEven-tier.Bid)
		}
	}
}

func TestCalculateZeroPrice(t *testing.T) {
	q := Calculate(0, 8)
	if q.BreakEven != 0 || q.Preempt != 0 || q.DirectUse != 0 {
		t.Fatalf("quote = %+v", q)
	}
}
