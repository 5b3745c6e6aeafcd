package domain

// Team is an ordered roster of resolved competitors. Position 0 is the
// captain. Teams are created empty at run start, grow monotonically
// during a run, and never shrink.
type Team struct {
	// Index is the team's position in the run's team list.
	Index int `json:"index"`

	// Members holds the assigned competitors in assignment order.
	Members []ResolvedCompetitor `json:"members"`
}

// NewTeams creates count empty teams with sequential indexes.
func NewTeams(count int) []Team {
	teams := make([]Team, count)
	for i := range teams {
		teams[i] = Team{Index: i, Members: make([]ResolvedCompetitor, 0)}
	}
	return teams
}

// Add appends a competitor to the team. Capacity is the caller's
// responsibility; assignment candidates are filtered before Add is
// ever reached.
func (t *Team) Add(rc ResolvedCompetitor) {
	t.Members = append(t.Members, rc)
}

// Len returns the current member count.
func (t Team) Len() int { return len(t.Members) }

// HasCapacity reports whether the team can accept another member under
// the given size limit.
func (t Team) HasCapacity(teamSize int) bool { return len(t.Members) < teamSize }

// Total returns the sum of the members' effective weights.
func (t Team) Total() float64 {
	var sum float64
	for _, m := range t.Members {
		sum += m.EffectiveWeight
	}
	return sum
}

// EliteCount returns how many members are classified elite.
func (t Team) EliteCount() int {
	var n int
	for _, m := range t.Members {
		if m.IsElite {
			n++
		}
	}
	return n
}

// Captain returns the team's captain (position 0) and whether one has
// been seeded yet.
func (t Team) Captain() (ResolvedCompetitor, bool) {
	if len(t.Members) == 0 {
		return ResolvedCompetitor{}, false
	}
	return t.Members[0], true
}

// Totals returns the running point total of every team, indexed by
// team position.
func Totals(teams []Team) []float64 {
	totals := make([]float64, len(teams))
	for i, t := range teams {
		totals[i] = t.Total()
	}
	return totals
}
