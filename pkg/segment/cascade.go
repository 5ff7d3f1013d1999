package segment

// Archetype labels produced by the rule cascade
const (
	Whale         Label = "Whale"
	HighSpender   Label = "High Spender"
	HardcoreF2P   Label = "Hardcore F2P"
	EngagedPlayer Label = "Engaged Player"
	RegularPlayer Label = "Regular Player"
	CasualPlayer  Label = "Casual Player"
)

// Profile carries the attributes the archetype rules look at
type Profile struct {
	Spend      float64
	Engagement float64
	PlayTime   float64
	Sessions   float64
}

// Rule pairs a predicate with the label it assigns
type Rule struct {
	Label Label
	Match func(Profile) bool
}

// Cascade evaluates rules top-down; the first match wins. Rule order is
// part of the contract.
type Cascade struct {
	rules    []Rule
	fallback Label
}

// NewCascade builds a cascade from an ordered rule list
func NewCascade(fallback Label, rules ...Rule) *Cascade {
	rs := make([]Rule, len(rules))
	copy(rs, rules)
	return &Cascade{rules: rs, fallback: fallback}
}

// Archetypes is the six-rule player archetype classifier
func Archetypes() *Cascade {
	return NewCascade(CasualPlayer,
		Rule{Whale, func(p Profile) bool { return p.Spend > 100 }},
		Rule{HighSpender, func(p Profile) bool { return p.Spend > 25 && p.Engagement > 6 }},
		Rule{HardcoreF2P, func(p Profile) bool { return p.PlayTime > 25 && p.Spend == 0 }},
		Rule{EngagedPlayer, func(p Profile) bool { return p.Engagement > 7 }},
		Rule{RegularPlayer, func(p Profile) bool { return p.PlayTime > 10 }},
		Rule{CasualPlayer, func(p Profile) bool { return p.Sessions <= 2 }},
	)
}

// Rules returns the rules in evaluation order
func (c *Cascade) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Labels returns every label the cascade can produce, in rule order,
// without duplicates
func (c *Cascade) Labels() []Label {
	seen := make(map[Label]bool)
	var out []Label
	for _, r := range c.rules {
		if !seen[r.Label] {
			seen[r.Label] = true
			out = append(out, r.Label)
		}
	}
	if !seen[c.fallback] {
		out = append(out, c.fallback)
	}
	return out
}

// Classify returns the label of the first matching rule, or the fallback
func (c *Cascade) Classify(p Profile) Label {
	for _, r := range c.rules {
		if r.Match(p) {
			return r.Label
		}
	}
	return c.fallback
}

// Assign classifies each profile
func (c *Cascade) Assign(profiles []Profile) []Label {
	labels := make([]Label, len(profiles))
	for i, p := range profiles {
		labels[i] = c.Classify(p)
	}
	return labels
}
