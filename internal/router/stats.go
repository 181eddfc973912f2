package router

import (
	"errors"

	"github.com/terminal-bench/txengine/internal/ledger"
)

// Stats counts instruction outcomes over a run.
type Stats struct {
	Applied           int
	Rejected          int
	InsufficientFunds int
	UnknownTx         int
	IllegalTransition int
	ByKind            map[ledger.Kind]int
}

func (s *Stats) record(kind ledger.Kind, err error) {
	if s.ByKind == nil {
		s.ByKind = make(map[ledger.Kind]int)
	}
	s.ByKind[kind]++

	if err == nil {
		s.Applied++
		return
	}

	s.Rejected++
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		s.InsufficientFunds++
	case errors.Is(err, ledger.ErrUnknownTransaction):
		s.UnknownTx++
	case errors.Is(err, ledger.ErrIllegalTransition):
		s.IllegalTransition++
	}
}

// Merge adds other's counters into s.
func (s *Stats) Merge(other Stats) {
	s.Applied += other.Applied
	s.Rejected += other.Rejected
	s.InsufficientFunds += other.InsufficientFunds
	s.UnknownTx += other.UnknownTx
	s.IllegalTransition += other.IllegalTransition

	if len(other.ByKind) == 0 {
		return
	}
	if s.ByKind == nil {
		s.ByKind = make(map[ledger.Kind]int, len(other.ByKind))
	}
	for k, n := range other.ByKind {
		s.ByKind[k] += n
	}
}

// Total is the number of instructions seen.
func (s Stats) Total() int {
	return s.Applied + s.Rejected
}
