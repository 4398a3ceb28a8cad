// Package bid computes loot-auction bid guidance: how much a party
// member can bid on a dropped item before buying it outright beats
// splitting the sale proceeds. All prices are whole gold.
package bid

import "math"

// Party size bounds. A "party" of 1 cannot auction, and raids cap at 16.
const (
	MinPartySize = 2
	MaxPartySize = 16
)

// TierRatios are the discount tiers shown alongside the break-even
// point, mildest first.
var TierRatios = [3]float64{0.25, 0.50, 0.75}

// Fee is the auction house cut taken from the sale price, floored.
func Fee(price int) int {
	if price < 0 {
		return 0
	}
	return price * 5 / 100
}

func clampParty(p int) int {
	if p < MinPartySize {
		return MinPartySize
	}
	if p > MaxPartySize {
		return MaxPartySize
	}
	return p
}

// BreakEven is the bid at which winning the item costs exactly what the
// bidder would have received from selling it and splitting with the
// rest of the party: (price - fee) * (p-1) / p, floored.
func BreakEven(price, partySize int) int {
	p := clampParty(partySize)
	net := price - Fee(price)
	if net < 0 {
		net = 0
	}
	return net * (p - 1) / p
}

// DirectUse is the equivalent point when the winner keeps the item
// instead of reselling, so no fee applies: price * (p-1) / p, floored.
func DirectUse(price, partySize int) int {
	if price < 0 {
		return 0
	}
	p := clampParty(partySize)
	return price * (p - 1) / p
}

// Preempt is the customary opening bid, break-even divided by 1.1 and
// rounded. Bidding this leaves the rest of the party slightly ahead, so
// it is rarely contested.
func Preempt(breakEven int) int {
	return int(math.Round(float64(breakEven) / 1.1))
}

// TierBid is one row of the guidance table: the bid at a discount tier
// and the margin it leaves relative to break-even.
type TierBid struct {
	Ratio  float64
	Bid    int
	Margin int
}

// Quote bundles every figure for one item price and party size.
type Quote struct {
	Price     int
	PartySize int
	Fee       int
	BreakEven int
	DirectUse int
	Preempt   int
	Tiers     [3]TierBid
}

// Calculate produces the full guidance table. Party size is clamped to
// the valid range rather than rejected; the UI feeds raw input here.
func Calculate(price, partySize int) Quote {
	p := clampParty(partySize)
	be := BreakEven(price, p)

	q := Quote{
		Price:     price,
		PartySize: p,
		Fee:       Fee(price),
		BreakEven: be,
		DirectUse: DirectUse(price, p),
		Preempt:   Preempt(be),
	}
	for i, r := range TierRatios {
		bid := int(math.Round(float64(be) / (1 + 0.1*r)))
		q.Tiers[i] = TierBid{Ratio: r, Bid: bid, Margin: be - bid}
	}
	return q
}
