package room

// Rand is the random source for room decisions. *rand.Rand from math/rand/v2
// satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// TargetMap maps each attacker to the player receiving its garbage.
type TargetMap map[string]string

// AssignTargets builds one targeting round. Two players always face each other.
// With three or more, each attacker independently picks a random opponent, so
// targets may be shared. Fewer than two players yields nil.
func AssignTargets(playerIDs []string, rng Rand) TargetMap {
	n := len(playerIDs)
	if n <= 1 {
		return nil
	}

	targets := make(TargetMap, n)
	if n == 2 {
		targets[playerIDs[0]] = playerIDs[1]
		targets[playerIDs[1]] = playerIDs[0]
		return targets
	}

	for i, attacker := range playerIDs {
		j := rng.IntN(n - 1)
		if j >= i {
			j++
		}
		targets[attacker] = playerIDs[j]
	}
	return targets
}
