package domain

// OfferTier is the promotional tier attached to a catalog item. A cart line
// captures the tier observed when the line was added or updated, not a live
// reference to the catalog.
type OfferTier string

const (
	OfferNone         OfferTier = "NONE"
	OfferBuy1Get1Free OfferTier = "BUY_1_GET_1_FREE"
	OfferBuy2Get3Free OfferTier = "BUY_2_GET_3_FREE"
	OfferBuy3Get5Free OfferTier = "BUY_3_GET_5_FREE"
)

func (t OfferTier) Valid() bool {
	switch t {
	case OfferNone, OfferBuy1Get1Free, OfferBuy2Get3Free, OfferBuy3Get5Free:
		return true
	}
	return false
}

func (t OfferTier) String() string {
	return string(t)
}

// offerCycle describes a tier as a first cycle (firstPaid paid units unlock
// the rest of the cycle for free) followed by steady-state cycles where every
// cycleSize additional units cost exactly one more paid unit.
type offerCycle struct {
	firstPaid int64
	cycleSize int64
}

var offerCycles = map[OfferTier]offerCycle{
	OfferBuy2Get3Free: {firstPaid: 2, cycleSize: 5},
	OfferBuy3Get5Free: {firstPaid: 3, cycleSize: 8},
}

// Resolve splits a total quantity into paid and free units for the given
// tier. It is pure and total: paid+free == totalQty and both are >= 0 for
// every input, and resolving the sum of its own output reproduces the same
// split.
func Resolve(totalQty int64, tier OfferTier) (paid, free int64) {
	if totalQty <= 0 {
		return 0, 0
	}

	switch tier {
	case OfferBuy1Get1Free:
		// Uniform cycle of two from the first unit: pay one per complete
		// pair, odd remainder is paid.
		completeCycles := totalQty / 2
		remainder := totalQty % 2
		paid = completeCycles + remainder
		return paid, totalQty - paid
	case OfferBuy2Get3Free, OfferBuy3Get5Free:
		c := offerCycles[tier]
		if totalQty <= c.cycleSize {
			paid = totalQty
			if paid > c.firstPaid {
				paid = c.firstPaid
			}
			return paid, totalQty - paid
		}
		extra := totalQty - c.cycleSize
		additionalPaid := (extra + c.cycleSize - 1) / c.cycleSize
		paid = c.firstPaid + additionalPaid
		return paid, totalQty - paid
	default:
		return totalQty, 0
	}
}
