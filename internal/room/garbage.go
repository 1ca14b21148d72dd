package room

// GarbageLines converts a line-clear report into the number of garbage rows
// sent to the target. A single only sends a row with probability singleChance.
func GarbageLines(cleared int, singleChance float64, rng Rand) int {
	switch {
	case cleared <= 0:
		return 0
	case cleared == 1:
		if rng.Float64() < singleChance {
			return 1
		}
		return 0
	case cleared == 2:
		return 1
	case cleared == 3:
		return 2
	default:
		return 4
	}
}
