package rating

import "math"

const (
	DefaultSkillMean  = 25.0
	DefaultSkillSigma = DefaultSkillMean / 3
)

// Skill is a Gaussian belief over a player's strength.
type Skill struct {
	Mu    float64 `json:"mu"`
	Sigma float64 `json:"sigma"`
}

// Conservative is the usual mu - 3 sigma leaderboard value.
func (s Skill) Conservative() float64 {
	return s.Mu - 3*s.Sigma
}

type BayesConfig struct {
	Mu    float64
	Sigma float64
	Beta  float64
}

func DefaultBayesConfig() BayesConfig {
	return BayesConfig{
		Mu:    DefaultSkillMean,
		Sigma: DefaultSkillSigma,
		Beta:  DefaultSkillSigma / 2,
	}
}

// Bayes is a two-team, no-draw skill updater in the TrueSkill family.
type Bayes struct {
	cfg BayesConfig
}

func NewBayes(cfg BayesConfig) *Bayes {
	def := DefaultBayesConfig()
	if cfg.Sigma <= 0 {
		cfg.Sigma = def.Sigma
	}
	if cfg.Beta <= 0 {
		cfg.Beta = cfg.Sigma / 2
	}
	if cfg.Mu == 0 {
		cfg.Mu = def.Mu
	}
	return &Bayes{cfg: cfg}
}

func (b *Bayes) Initial() Skill {
	return Skill{Mu: b.cfg.Mu, Sigma: b.cfg.Sigma}
}

// Update returns the posteriors of both teams after winners beat losers.
// The inputs are not modified.
func (b *Bayes) Update(winners, losers []Skill) ([]Skill, []Skill) {
	if len(winners) == 0 || len(losers) == 0 {
		return clone(winners), clone(losers)
	}

	var muW, muL, sumVar float64
	for _, s := range winners {
		muW += s.Mu
		sumVar += s.Sigma * s.Sigma
	}
	for _, s := range losers {
		muL += s.Mu
		sumVar += s.Sigma * s.Sigma
	}
	n := float64(len(winners) + len(losers))
	c := math.Sqrt(n*b.cfg.Beta*b.cfg.Beta + sumVar)
	t := (muW - muL) / c
	v := vWin(t)
	w := v * (v + t)

	apply := func(team []Skill, sign float64) []Skill {
		out := make([]Skill, len(team))
		for i, s := range team {
			variance := s.Sigma * s.Sigma
			mu := s.Mu + sign*variance/c*v
			variance *= math.Max(1-variance/(c*c)*w, 1e-6)
			out[i] = Skill{Mu: mu, Sigma: math.Sqrt(variance)}
		}
		return out
	}
	return apply(winners, 1), apply(losers, -1)
}

// vWin is the truncated Gaussian mean correction N(t)/Phi(t).
func vWin(t float64) float64 {
	cdf := 0.5 * math.Erfc(-t/math.Sqrt2)
	if cdf < 1e-300 {
		return -t
	}
	pdf := math.Exp(-t*t/2) / math.Sqrt(2*math.Pi)
	return pdf / cdf
}

func clone(in []Skill) []Skill {
	out := make([]Skill, len(in))
	copy(out, in)
	return out
}
