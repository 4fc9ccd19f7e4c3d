package pairing

import "math"

// Weights tune the candidate score. Karma should stay orders of magnitude above
// the rest so that waiting time decides and the other terms break ties.
type Weights struct {
	Karma                  float64 `json:"karma"`
	SessionPlays           float64 `json:"sessionPlays"`
	SessionTeammateRepeat  float64 `json:"sessionTeammateRepeat"`
	HistoricTeammateRepeat float64 `json:"historicTeammateRepeat"`
	SessionOpponentRepeat  float64 `json:"sessionOpponentRepeat"`
	HistoricOpponentRepeat float64 `json:"historicOpponentRepeat"`
	IntraTeamEloDiff       float64 `json:"intraTeamEloDiff"`
	InterTeamEloDiff       float64 `json:"interTeamEloDiff"`

	// HistoricOpponentFromSession feeds the historic opponent term from the
	// session matrix, as older deployments did.
	HistoricOpponentFromSession bool `json:"historicOpponentFromSession"`
}

func DefaultWeights() Weights {
	return Weights{
		Karma:                  100000,
		SessionPlays:           1000,
		SessionTeammateRepeat:  100,
		HistoricTeammateRepeat: 20,
		SessionOpponentRepeat:  40,
		HistoricOpponentRepeat: 8,
		IntraTeamEloDiff:       0.1,
		InterTeamEloDiff:       0.3,
	}
}

// scoreInput is everything derived from history that scoring reads.
type scoreInput struct {
	plays    map[string]int
	karma    map[string]float64
	session  occurrences
	historic occurrences
	ratings  map[string]float64
}

type Breakdown struct {
	Karma           float64 `json:"karma"`
	SessionPlays    int     `json:"sessionPlays"`
	SessionRepeats  int     `json:"sessionTeammateRepeats"`
	HistoricRepeats int     `json:"historicTeammateRepeats"`
	SessionOpp      int     `json:"sessionOpponentRepeats"`
	HistoricOpp     int     `json:"historicOpponentRepeats"`
	IntraDiff       float64 `json:"intraTeamEloDiff"`
	InterDiff       float64 `json:"interTeamEloDiff"`
}

func breakdown(c Candidate, in scoreInput, w Weights) Breakdown {
	a, b := c.TeamA, c.TeamB
	var bd Breakdown
	for _, p := range c.Players() {
		bd.Karma += in.karma[p]
		bd.SessionPlays += in.plays[p]
	}

	bd.SessionRepeats = in.session.with.get(a[0], a[1]) + in.session.with.get(b[0], b[1])
	bd.HistoricRepeats = in.historic.with.get(a[0], a[1]) + in.historic.with.get(b[0], b[1])

	historicAgainst := in.historic.against
	if w.HistoricOpponentFromSession {
		historicAgainst = in.session.against
	}
	for _, x := range a {
		for _, y := range b {
			bd.SessionOpp += in.session.against.get(x, y)
			bd.HistoricOpp += historicAgainst.get(x, y)
		}
	}

	ra0, ra1 := in.ratings[a[0]], in.ratings[a[1]]
	rb0, rb1 := in.ratings[b[0]], in.ratings[b[1]]
	bd.IntraDiff = math.Abs(ra0-ra1) + math.Abs(rb0-rb1)
	bd.InterDiff = math.Abs((ra0+ra1)/2 - (rb0+rb1)/2)
	return bd
}

func (bd Breakdown) score(w Weights) float64 {
	return w.Karma*bd.Karma -
		w.SessionPlays*float64(bd.SessionPlays) -
		w.SessionTeammateRepeat*float64(bd.SessionRepeats) -
		w.HistoricTeammateRepeat*float64(bd.HistoricRepeats) -
		w.SessionOpponentRepeat*float64(bd.SessionOpp) -
		w.HistoricOpponentRepeat*float64(bd.HistoricOpp) -
		w.IntraTeamEloDiff*bd.IntraDiff -
		w.InterTeamEloDiff*bd.InterDiff
}
