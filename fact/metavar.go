package fact

// A Metavar is an opaque placeholder value standing in for an input the
// fact leaves unspecified. It is unique per (name, evaluation) pair,
// equal only to itself, and carries no payload beyond identity, so
// expectation clauses and assertions can refer to "the same" unknown
// value consistently.
type Metavar struct {
	name string
}

func (m *Metavar) String() string { return "..." + m.name + "..." }

// Equal reports identity. Structural comparison honors this method, so
// two metavariables bound under the same name in different evaluations
// never compare equal.
func (m *Metavar) Equal(o *Metavar) bool { return m == o }
