package decision

import (
	"log"
	"runtime/debug"

	"novagrab/models"
)

// ReasonSpecFault is recorded when a spec panics.
const ReasonSpecFault = "SpecFault"

// Spec is one accept/reject rule. Specs receive a copy of the candidate and
// must not retain it.
type Spec interface {
	Name() string
	Evaluate(c models.Candidate, in *Input) Verdict
}

// FailFast is implemented by specs whose rejection makes the remaining
// specs meaningless.
type FailFast interface {
	FailFast() bool
}

// Chain runs specs in a fixed order and records every rejection.
type Chain struct {
	specs []Spec
}

func NewChain(specs ...Spec) *Chain {
	return &Chain{specs: append([]Spec(nil), specs...)}
}

// DefaultChain is the chain used for release searches.
func DefaultChain() *Chain {
	return NewChain(DefaultSpecs()...)
}

// ImportChain re-checks a completed download before import.
func ImportChain() *Chain {
	return NewChain(ImportSpecs()...)
}

// Names lists the spec names in evaluation order.
func (ch *Chain) Names() []string {
	names := make([]string, len(ch.specs))
	for i, s := range ch.specs {
		names[i] = s.Name()
	}
	return names
}

// Evaluate returns c annotated with the rejections of every spec. Evaluation
// stops early only after a fail-fast spec rejects.
func (ch *Chain) Evaluate(c models.Candidate, in *Input) models.Candidate {
	out := c
	out.Rejections = append(make([]models.Rejection, 0, len(c.Rejections)), c.Rejections...)
	for _, spec := range ch.specs {
		v := runSpec(spec, out, in)
		if v.Accepted() {
			continue
		}
		out.Rejections = append(out.Rejections, v.rejection(spec.Name()))
		if ff, ok := spec.(FailFast); ok && ff.FailFast() {
			break
		}
	}
	return out
}

func runSpec(spec Spec, c models.Candidate, in *Input) (v Verdict) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[decision] spec %s panicked on %q: %v\n%s", spec.Name(), c.Release.Title, r, debug.Stack())
			v = Reject(ReasonSpecFault, "%v", r)
		}
	}()
	return spec.Evaluate(c, in)
}
