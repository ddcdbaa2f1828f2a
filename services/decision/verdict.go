// Package decision evaluates parsed releases against search criteria through
// an ordered chain of independent rules and ranks the survivors.
package decision

import (
	"fmt"

	"novagrab/models"
)

// Verdict is the outcome of one spec for one candidate.
type Verdict struct {
	rejected bool
	reason   string
	detail   string
	severity models.Severity
}

// Accept lets the candidate through.
func Accept() Verdict {
	return Verdict{}
}

// Reject fails the candidate permanently for this search.
func Reject(reason, format string, args ...any) Verdict {
	return Verdict{rejected: true, reason: reason, detail: fmt.Sprintf(format, args...), severity: models.SeverityPermanent}
}

// Temporary fails the candidate for now; a later search may accept it.
func Temporary(reason, format string, args ...any) Verdict {
	return Verdict{rejected: true, reason: reason, detail: fmt.Sprintf(format, args...), severity: models.SeverityTemporary}
}

func (v Verdict) Accepted() bool { return !v.rejected }
func (v Verdict) Reason() string { return v.reason }

func (v Verdict) rejection(spec string) models.Rejection {
	return models.Rejection{Spec: spec, Reason: v.reason, Detail: v.detail, Severity: v.severity}
}
