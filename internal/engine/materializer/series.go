package materializer

// bitsPerMegabit converts a per-second byte total into Mbps: bytes*8/1e6.
const bitsPerMegabit = 1e6

// Materialize turns sparse per-second byte totals into a dense Mbps series
// covering every second from 0 to the largest bucket, zero-filled. An empty
// map yields an empty series.
func Materialize(buckets map[int64]uint64) []float64 {
	if len(buckets) == 0 {
		return []float64{}
	}

	first := true
	var maxBucket int64
	for t := range buckets {
		if first || t > maxBucket {
			maxBucket = t
			first = false
		}
	}
	if maxBucket < 0 {
		return []float64{}
	}

	series := make([]float64, maxBucket+1)
	for t := int64(0); t <= maxBucket; t++ {
		series[t] = Mbps(buckets[t])
	}
	return series
}

// Mbps converts a byte count observed over one second into megabits per second.
func Mbps(bytes uint64) float64 {
	return float64(bytes*8) / bitsPerMegabit
}
