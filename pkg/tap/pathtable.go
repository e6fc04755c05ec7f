package tap

import "sync"

// Path is a precomputed shortest-path entry: the TMS sequence driven to get
// from one state to another, packed LSB-first into tmsBits (bit 0 is the
// first TMS value driven), plus the number of bits that are meaningful.
type Path struct {
	TMSBits  uint8
	BitCount uint8
}

// numStates is the number of states in the canonical TAP diagram.
const numStates = 16

var (
	pathTableOnce sync.Once
	pathTable     [numStates][numStates]Path
)

// buildPathTable computes the static 16x16 shortest-path table once, via the
// same BFS used by computePath, so navigation afterward is an O(1) lookup
// instead of a per-call search.
func buildPathTable() {
	for from := State(0); from < numStates; from++ {
		for to := State(0); to < numStates; to++ {
			if from == to {
				pathTable[from][to] = Path{}
				continue
			}
			seq, err := computePath(from, to)
			if err != nil {
				panic(err)
			}
			var bits uint8
			for i, tms := range seq.TMS {
				if tms {
					bits |= 1 << uint(i)
				}
			}
			pathTable[from][to] = Path{TMSBits: bits, BitCount: uint8(len(seq.TMS))}
		}
	}
}

// LookupPath returns the precomputed shortest path from 'from' to 'to'. The
// table is built once, lazily, on first use.
func LookupPath(from, to State) Path {
	pathTableOnce.Do(buildPathTable)
	return pathTable[from][to]
}

// TMSBitsLSBFirst expands a packed Path into an LSB-first []bool, the same
// shape computePath/GoTo produce, for callers that want to drive TMS one bit
// at a time.
func (p Path) TMSBitsLSBFirst() []bool {
	out := make([]bool, p.BitCount)
	for i := range out {
		out[i] = (p.TMSBits>>uint(i))&1 == 1
	}
	return out
}

// GoToFast advances the machine using the precomputed table instead of a
// per-call BFS. It is a no-op if the machine is already at target.
func (m *StateMachine) GoToFast(target State) Sequence {
	path := LookupPath(m.state, target)
	tms := path.TMSBitsLSBFirst()
	states := make([]State, 0, len(tms)+1)
	states = append(states, m.state)
	for _, bit := range tms {
		states = append(states, m.Clock(bit))
	}
	return Sequence{TMS: tms, States: states}
}
