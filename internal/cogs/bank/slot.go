package bank

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
)

// Slot machine symbols. Three reels share one ring; a spin rotates each
// reel to a random offset and shows a three-row window.
type symbol string

const (
	symCherries  symbol = "🍒"
	symCookie    symbol = "🍪"
	symTwo       symbol = "2️⃣"
	symFlower    symbol = "🎴"
	symCyclone   symbol = "🌀"
	symSunflower symbol = "🌻"
	symSix       symbol = "6️⃣"
	symMushroom  symbol = "🍄"
	symHeart     symbol = "❤️"
	symSnowflake symbol = "❄️"
)

var reelRing = []symbol{
	symCherries, symCookie, symTwo, symFlower, symCyclone,
	symSunflower, symSix, symMushroom, symHeart, symSnowflake,
}

var (
	ErrOnCooldown = errors.New("slot machine is cooling off")
	ErrInvalidBid = errors.New("invalid bid")
)

// randIntn is a test seam for reel rotation.
var randIntn = rand.Intn

type payout struct {
	amount func(bid int64) int64
	phrase string
}

// payoutsTriple pays the center row exactly; payoutsPair pays any two
// consecutive center-row symbols. Generic three-of-a-kind and
// two-of-a-kind fall through to the catch-all rates.
var payoutsTriple = map[[3]symbol]payout{
	{symTwo, symTwo, symSix}:                {func(b int64) int64 { return b * 2500 }, "JACKPOT! 226! Your bid has been multiplied * 2500!"},
	{symFlower, symFlower, symFlower}:       {func(b int64) int64 { return b + 1000 }, "Three flower cards! +1000!"},
	{symCherries, symCherries, symCherries}: {func(b int64) int64 { return b + 800 }, "Three cherries! +800!"},
}

var payoutsPair = map[[2]symbol]payout{
	{symTwo, symSix}:           {func(b int64) int64 { return b * 4 }, "2 6! Your bid has been multiplied * 4!"},
	{symCherries, symCherries}: {func(b int64) int64 { return b * 3 }, "Two cherries! Your bid has been multiplied * 3!"},
}

var (
	payoutThree = payout{func(b int64) int64 { return b + 500 }, "Three symbols! +500!"}
	payoutTwo   = payout{func(b int64) int64 { return b * 2 }, "Two consecutive symbols! Your bid has been multiplied * 2!"}
)

// SpinResult is one pull of the machine. Payout is the gross amount paid
// for the bid (zero on a loss); the net change to the player is
// Payout - bid.
type SpinResult struct {
	Rows    [3][3]symbol
	Payout  int64
	Phrase  string
	Display string
}

// spin rotates each reel to a random offset and evaluates the center row.
func spin(bid int64) SpinResult {
	var rows [3][3]symbol
	for reel := 0; reel < 3; reel++ {
		offset := randIntn(len(reelRing))
		for row := 0; row < 3; row++ {
			rows[row][reel] = reelRing[(offset+row)%len(reelRing)]
		}
	}

	result := SpinResult{Rows: rows, Display: renderRows(rows)}
	center := rows[1]

	if p, ok := payoutsTriple[center]; ok {
		result.Payout, result.Phrase = p.amount(bid), p.phrase
		return result
	}
	if p, ok := payoutsPair[[2]symbol{center[0], center[1]}]; ok {
		result.Payout, result.Phrase = p.amount(bid), p.phrase
		return result
	}
	if p, ok := payoutsPair[[2]symbol{center[1], center[2]}]; ok {
		result.Payout, result.Phrase = p.amount(bid), p.phrase
		return result
	}

	hasThree := center[0] == center[1] && center[1] == center[2]
	hasTwo := center[0] == center[1] || center[1] == center[2]
	switch {
	case hasThree:
		result.Payout, result.Phrase = payoutThree.amount(bid), payoutThree.phrase
	case hasTwo:
		result.Payout, result.Phrase = payoutTwo.amount(bid), payoutTwo.phrase
	}
	return result
}

func renderRows(rows [3][3]symbol) string {
	var b strings.Builder
	for i, row := range rows {
		marker := "  "
		if i == 1 {
			marker = "> "
		}
		fmt.Fprintf(&b, "%s%s %s %s\n", marker, row[0], row[1], row[2])
	}
	return strings.TrimRight(b.String(), "\n")
}

// PayoutTable renders the machine's rates for the payouts command.
func PayoutTable() string {
	lines := []string{
		"Slot machine payouts:",
		fmt.Sprintf("  %s %s %s  bid * 2500", symTwo, symTwo, symSix),
		fmt.Sprintf("  %s %s %s  bid + 1000", symFlower, symFlower, symFlower),
		fmt.Sprintf("  %s %s %s  bid + 800", symCherries, symCherries, symCherries),
		fmt.Sprintf("  %s %s      bid * 4 (consecutive)", symTwo, symSix),
		fmt.Sprintf("  %s %s      bid * 3 (consecutive)", symCherries, symCherries),
		"  three of a kind    bid + 500",
		"  two consecutive    bid * 2",
	}
	return strings.Join(lines, "\n")
}
