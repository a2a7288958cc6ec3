package testfixtures

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// idNamespace roots the name-based UUIDs handed out in tests.
var idNamespace = uuid.MustParse("6f1c2a58-3d0e-4b8e-9c55-0e2d7a41b9e3")

// IDGenerator hands out UUIDs that are reproducible across runs: the n-th id
// of a generator seeded with the same label is always the same value.
type IDGenerator struct {
	mu     sync.Mutex
	label  string
	issued []string
}

func NewIDGenerator(label string) *IDGenerator {
	if label == "" {
		label = "exams"
	}
	return &IDGenerator{label: label}
}

// Next returns the next identifier in the sequence.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := uuid.NewSHA1(idNamespace, []byte(g.label+"/"+strconv.Itoa(len(g.issued)+1))).String()
	g.issued = append(g.issued, id)
	return id
}

// NextFunc is the form the service constructors take.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return uuid.NewString
	}
	return g.Next
}

// Issued lists every identifier handed out so far, oldest first.
func (g *IDGenerator) Issued() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.issued...)
}
