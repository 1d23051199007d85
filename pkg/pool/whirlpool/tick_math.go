package whirlpool

import (
	"fmt"
	"math/big"
)

// Q64.64 ratios for negative ticks: 2^64 / sqrt(1.0001)^(2^i)
var negativeTickRatios = [...]string{
	"18445821805675392311",
	"18444899583751176498",
	"18443055278223354162",
	"18439367220385604838",
	"18431993317065449817",
	"18417254355718160513",
	"18387811781193591352",
	"18329067761203520168",
	"18212142134806087854",
	"17980523815641551639",
	"17526086738831147013",
	"16651378430235024244",
	"15030750278693429944",
	"12247334978882834399",
	"8131365268884726200",
	"3584323654723342297",
	"696457651847595233",
	"26294789957452057",
	"37481735321082",
}

// Q32.96 ratios for positive ticks: 2^96 * sqrt(1.0001)^(2^i)
var positiveTickRatios = [...]string{
	"79232123823359799118286999567",
	"79236085330515764027303304731",
	"79244008939048815603706035061",
	"79259858533276714757314932305",
	"79291567232598584799939703904",
	"79355022692464371645785046466",
	"79482085999252804386437311141",
	"79736823300114093921829183326",
	"80248749790819932309965073892",
	"81282483887344747381513967011",
	"83390072131320151908154831281",
	"87770609709833776024991924138",
	"97234110755111693312479820773",
	"119332217159966728226237229890",
	"179736315981702064433883588727",
	"407748233172238350107850275304",
	"2098478828474011932436660412517",
	"55581415166113811149459800483533",
	"38992368544603139932233054999993551",
}

var (
	negativeRatios = mustParseRatios(negativeTickRatios[:])
	positiveRatios = mustParseRatios(positiveTickRatios[:])
)

func mustParseRatios(values []string) []*big.Int {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		n, ok := new(big.Int).SetString(v, 10)
		if !ok {
			panic(fmt.Sprintf("invalid tick ratio %q", v))
		}
		out[i] = n
	}
	return out
}

// TickIndexToSqrtPrice returns the Q64.64 sqrt price at tick, bit for bit
// identical to the on-chain tick math.
func TickIndexToSqrtPrice(tick int32) (*big.Int, error) {
	if tick < MIN_TICK || tick > MAX_TICK {
		return nil, fmt.Errorf("tick index %d out of range [%d, %d]", tick, MIN_TICK, MAX_TICK)
	}
	if tick >= 0 {
		return sqrtPricePositiveTick(tick), nil
	}
	return sqrtPriceNegativeTick(tick), nil
}

func sqrtPricePositiveTick(tick int32) *big.Int {
	ratio := new(big.Int).Lsh(big.NewInt(1), 96)
	if tick&1 != 0 {
		ratio.Set(positiveRatios[0])
	}
	for i := 1; i < len(positiveRatios); i++ {
		if tick&(1<<i) != 0 {
			ratio.Mul(ratio, positiveRatios[i])
			ratio.Rsh(ratio, 96)
		}
	}
	return ratio.Rsh(ratio, 32)
}

func sqrtPriceNegativeTick(tick int32) *big.Int {
	abs := -tick
	ratio := new(big.Int).Set(Q64)
	if abs&1 != 0 {
		ratio.Set(negativeRatios[0])
	}
	for i := 1; i < len(negativeRatios); i++ {
		if abs&(1<<i) != 0 {
			ratio.Mul(ratio, negativeRatios[i])
			ratio.Rsh(ratio, 64)
		}
	}
	return ratio
}

// FullRangeTickIndexes returns the widest usable tick range for tickSpacing.
// Both bounds are multiples of tickSpacing and lower == -upper.
func FullRangeTickIndexes(tickSpacing uint16) (lower int32, upper int32) {
	spacing := int32(tickSpacing)
	upper = (MAX_TICK / spacing) * spacing
	return -upper, upper
}

// TickArrayStartIndex returns the first tick of the tick array containing tick.
// Division floors toward negative infinity, so tick -1 belongs to the array
// ending at -1, not the one starting at 0.
func TickArrayStartIndex(tick int32, tickSpacing uint16) int32 {
	ticksPerArray := int32(tickSpacing) * TICK_ARRAY_SIZE
	return floorDiv(tick, ticksPerArray) * ticksPerArray
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
