package pairing

// Candidate is one 2v2 split before side assignment.
type Candidate struct {
	TeamA [2]string `json:"teamA"`
	TeamB [2]string `json:"teamB"`
}

func (c Candidate) Players() [4]string {
	return [4]string{c.TeamA[0], c.TeamA[1], c.TeamB[0], c.TeamB[1]}
}

// Enumerate lists every quad i<j<k<l of players with its three splits.
func Enumerate(players []string) []Candidate {
	n := len(players)
	if n < 4 {
		return nil
	}
	out := make([]Candidate, 0, 3*n*(n-1)*(n-2)*(n-3)/24)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				for l := k + 1; l < n; l++ {
					q := [4]string{players[i], players[j], players[k], players[l]}
					out = append(out,
						Candidate{TeamA: [2]string{q[0], q[1]}, TeamB: [2]string{q[2], q[3]}},
						Candidate{TeamA: [2]string{q[0], q[2]}, TeamB: [2]string{q[1], q[3]}},
						Candidate{TeamA: [2]string{q[0], q[3]}, TeamB: [2]string{q[1], q[2]}},
					)
				}
			}
		}
	}
	return out
}
