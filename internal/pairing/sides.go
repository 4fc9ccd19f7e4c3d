package pairing

import "math"

// redCost is how far from 50% red the player ends up after one more red game.
func (sc sideCounts) redCost(p string) float64 {
	r, b := float64(sc.red[p]), float64(sc.blue[p])
	return math.Abs((r+1)/(r+b+1) - 0.5)
}

func (sc sideCounts) blueCost(p string) float64 {
	r, b := float64(sc.red[p]), float64(sc.blue[p])
	return math.Abs(r/(r+b+1) - 0.5)
}

// assignSides keeps the candidate orientation unless swapping brings the four
// players closer to an even red/blue split.
func assignSides(c Candidate, sc sideCounts) (red, blue [2]string) {
	asIs, swapped := 0.0, 0.0
	for _, p := range c.TeamA {
		asIs += sc.redCost(p)
		swapped += sc.blueCost(p)
	}
	for _, p := range c.TeamB {
		asIs += sc.blueCost(p)
		swapped += sc.redCost(p)
	}
	if asIs <= swapped {
		return c.TeamA, c.TeamB
	}
	return c.TeamB, c.TeamA
}
