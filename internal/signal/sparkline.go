package signal

// SparklinePoints is the chart length used for provider history and placeholders.
const SparklinePoints = 9

// RandSource is the subset of *rand.Rand the placeholder needs.
type RandSource interface {
	Float64() float64
}

// PlaceholderSparkline scatters n samples inside price·[1-spread/2, 1+spread/2).
// The result only marks "no history"; it carries no market information.
func PlaceholderSparkline(price float64, n int, spread float64, rnd RandSource) []float64 {
	if n <= 0 || rnd == nil {
		return []float64{}
	}
	out := make([]float64, n)
	low := 1 - spread/2
	for i := range out {
		out[i] = price * (low + rnd.Float64()*spread)
	}
	return out
}

// SampleSeries picks n evenly spaced points ending at the newest sample.
func SampleSeries(prices []float64, n int) []float64 {
	if len(prices) == 0 || n <= 0 {
		return []float64{}
	}
	step := len(prices) / n
	if step < 1 {
		step = 1
	}
	out := make([]float64, n)
	for i := range out {
		idx := len(prices) - n*step + i*step
		if idx < 0 {
			idx = 0
		}
		if idx > len(prices)-1 {
			idx = len(prices) - 1
		}
		out[i] = prices[idx]
	}
	return out
}
