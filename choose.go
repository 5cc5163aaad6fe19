// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

// SendClause, RecvClause, FdInClause, FdOutClause and TimerClause build
// the five Clause shapes named in spec.md §3, mirroring the small typed
// per-operation constructors the teacher package (code.hybscloud.com/sess)
// uses in op.go (Send[T]{}, Recv[T]{}, ...) — generalized from session
// effect values to wait-engine clauses.

func SendClause(ch *Channel, buf []byte) Clause {
	return Clause{Kind: ClauseChannelSend, Ch: ch, Buf: buf}
}

func RecvClause(ch *Channel, buf []byte) Clause {
	return Clause{Kind: ClauseChannelRecv, Ch: ch, Buf: buf}
}

func FdInClause(fd int) Clause {
	return Clause{Kind: ClauseFdIn, Fd: fd}
}

func FdOutClause(fd int) Clause {
	return Clause{Kind: ClauseFdOut, Fd: fd}
}

func TimerClause(deadline int64) Clause {
	return Clause{Kind: ClauseTimer, Deadline: deadline}
}

// Choose accepts an array of clauses and a deadline and waits per
// spec.md §4.4: behaves exactly like the generic park protocol (§4.2)
// over the given clause array. Returns the index of the firing clause,
// or -1 with ErrTimedOut / ErrCanceled.
//
// The bias rule (spec.md §4.4): if multiple clauses are immediately ready
// at entry, one is picked uniformly at random, not array order; once any
// clause blocks, strict FIFO applies from then on. This is implemented by
// park's tryImmediate/rand.
func (rt *Runtime) Choose(clauses []Clause, deadline int64) (int, *Error) {
	for _, c := range clauses {
		if c.Kind == ClauseChannelSend {
			if err := validateItemLen("choose", c.Ch, len(c.Buf)); err != nil {
				return -1, err
			}
		}
		if c.Kind == ClauseChannelRecv {
			if err := validateItemLen("choose", c.Ch, len(c.Buf)); err != nil {
				return -1, err
			}
		}
	}
	return rt.park(rt.current, clauses, deadline)
}
