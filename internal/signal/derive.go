// Package signal holds the pure scoring rules shared by every aggregation.
package signal

import (
	"math"
	"strings"

	"trendpulse/internal/domain"
)

// Sentiment scores a price move plus optional search and social hints.
// An empty hint contributes nothing.
func Sentiment(changePct float64, rising bool, hint domain.Sentiment) domain.Sentiment {
	changePct = finite(changePct)
	score := 0

	switch {
	case changePct > 10:
		score += 2
	case changePct > 3:
		score++
	case changePct < -10:
		score -= 2
	case changePct < -3:
		score--
	}

	if rising {
		score++
	}

	switch hint {
	case domain.SentimentBullish:
		score++
	case domain.SentimentBearish:
		score--
	}

	if score >= 2 {
		return domain.SentimentBullish
	}
	if score <= -2 {
		return domain.SentimentBearish
	}
	return domain.SentimentNeutral
}

// TrendScore combines move size and log-scaled volume into 1..100.
func TrendScore(changePct, volume float64) int {
	changePct = math.Abs(finite(changePct))
	volume = finite(volume)
	if volume < 0 {
		volume = 0
	}

	move := math.Min(changePct*3, 50)
	activity := math.Min(math.Log10(volume+1)*5, 50)
	return clampInt(int(math.Round(math.Min(100, move+activity))), 1, 100)
}

// PositionScore ranks by list position when no volume is known.
func PositionScore(idx, base, step, floor int) int {
	score := base - idx*step
	if score < floor {
		score = floor
	}
	return clampInt(score, 1, 100)
}

func Authenticity(searchScore int, changePct float64) domain.Authenticity {
	changePct = finite(changePct)
	if searchScore > 60 && math.Abs(changePct) > 5 {
		return domain.AuthenticityVerified
	}
	if changePct < -10 {
		return domain.AuthenticityFUD
	}
	return domain.AuthenticityRumor
}

var capLadder = []struct {
	above  float64
	bucket int
}{
	{50_000_000_000, 10},
	{10_000_000_000, 9},
	{5_000_000_000, 8},
	{1_000_000_000, 7},
	{500_000_000, 6},
	{100_000_000, 5},
	{50_000_000, 4},
	{10_000_000, 3},
	{1_000_000, 2},
}

// MarketCapBucket maps a market cap (or volume when cap is unknown) to 1..10.
func MarketCapBucket(v float64) int {
	v = finite(v)
	for _, step := range capLadder {
		if v > step.above {
			return step.bucket
		}
	}
	return 1
}

// AlphaCapBucket is the coarser ladder used for early listing tokens.
func AlphaCapBucket(v float64) int {
	v = finite(v)
	switch {
	case v > 100_000_000:
		return 7
	case v > 10_000_000:
		return 5
	case v > 1_000_000:
		return 3
	default:
		return 1
	}
}

var quoteSuffixes = []string{"/USDT", "-USDT", "/USD", "-USD", "USDT", "BUSD", "USDC", "FDUSD"}

// SymbolKey normalizes a ticker for cross-provider matching:
// "$sol", "#SOL", "SOLUSDT" and "sol-usd" all map to "SOL".
func SymbolKey(s string) string {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.TrimLeft(key, "$#")
	for _, suffix := range quoteSuffixes {
		if len(key) > len(suffix) && strings.HasSuffix(key, suffix) {
			key = strings.TrimSuffix(key, suffix)
			break
		}
	}
	return key
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
