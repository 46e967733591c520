package domain

// Candidate is one table judged relevant to a query, with its similarity
// score. Core tables unioned in without a similarity match carry score 0.
type Candidate struct {
	Table string
	Score float64
}

// CandidateSet is the ordered, bounded subset of schema tables judged
// relevant to one query. Ephemeral, never persisted.
type CandidateSet struct {
	Candidates []Candidate
}

// Tables returns the candidate table names in rank order.
func (s CandidateSet) Tables() []string {
	out := make([]string, len(s.Candidates))
	for i, c := range s.Candidates {
		out[i] = c.Table
	}
	return out
}

// Contains reports whether the set includes the named table.
func (s CandidateSet) Contains(table string) bool {
	for _, c := range s.Candidates {
		if c.Table == table {
			return true
		}
	}
	return false
}

// JoinPlan is an ordered join sequence over candidate tables with a total
// cost estimate and human-readable optimization notes. One per query.
type JoinPlan struct {
	Tables        []string
	EstimatedCost float64
	Notes         []string
}
