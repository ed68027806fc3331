package classify

// ReasonCount is the number of variants rejected for one reason.
type ReasonCount struct {
	Reason Reason
	Count  int
}

// Tally counts outcomes over a run.
type Tally struct {
	Accepted int
	rejected map[Reason]int

	// Coverage and Frequency of accepted variants, in input order.
	Coverage  []float64
	Frequency []float64
}

// NewTally returns an empty tally.
func NewTally() *Tally {
	return &Tally{rejected: make(map[Reason]int)}
}

// Add counts one outcome.
func (t *Tally) Add(o Outcome) {
	switch o := o.(type) {
	case Accepted:
		t.Accepted++
		t.Coverage = append(t.Coverage, float64(o.Coverage))
		t.Frequency = append(t.Frequency, o.Frequency)
	case Rejected:
		t.rejected[o.Reason]++
	}
}

// Rejected returns the number of rejected variants.
func (t *Tally) Rejected() int {
	n := 0
	for _, c := range t.rejected {
		n += c
	}
	return n
}

// Total returns the number of classified variants.
func (t *Tally) Total() int {
	return t.Accepted + t.Rejected()
}

// Count returns the number of variants rejected for reason.
func (t *Tally) Count(reason Reason) int {
	return t.rejected[reason]
}

// Reasons returns the non-zero rejection counts in rule order.
func (t *Tally) Reasons() []ReasonCount {
	var out []ReasonCount
	for _, r := range Reasons {
		if c := t.rejected[r]; c > 0 {
			out = append(out, ReasonCount{Reason: r, Count: c})
		}
	}
	return out
}
