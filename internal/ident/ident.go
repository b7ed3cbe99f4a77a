// Package ident issues record identifiers of the form <kind>_<random>.
package ident

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Kind prefixes an identifier with the collection it belongs to.
type Kind string

const (
	Branch      Kind = "br"
	BankAccount Kind = "bnk"
	Client      Kind = "c"
	Loan        Kind = "l"
	DPS         Kind = "dps"
	FDR         Kind = "fdr"
	Transaction Kind = "tx"
	User        Kind = "u"
)

// Generator produces identifiers unique within their kind.
type Generator interface {
	New(kind Kind) string
}

// UUID is the production generator backed by random v4 UUIDs.
type UUID struct{}

func (UUID) New(kind Kind) string { return string(kind) + "_" + uuid.NewString() }

// Sequence hands out per-kind counters (br_1, br_2, tx_1, ...). Tests use it for
// predictable ids.
type Sequence struct {
	mu   sync.Mutex
	next map[Kind]int
}

func NewSequence() *Sequence { return &Sequence{next: map[Kind]int{}} }

func (s *Sequence) New(kind Kind) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next[kind]++
	return fmt.Sprintf("%s_%d", kind, s.next[kind])
}
