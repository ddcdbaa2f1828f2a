package decision

import (
	"testing"

	"novagrab/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSpec struct {
	name     string
	verdict  Verdict
	failFast bool
	calls    *int
}

func (s stubSpec) Name() string   { return s.name }
func (s stubSpec) FailFast() bool { return s.failFast }

func (s stubSpec) Evaluate(models.Candidate, *Input) Verdict {
	if s.calls != nil {
		*s.calls++
	}
	return s.verdict
}

type panickingSpec struct{}

func (panickingSpec) Name() string { return "Panicking" }

func (panickingSpec) Evaluate(models.Candidate, *Input) Verdict {
	panic("rule exploded")
}

func TestDefaultSpecOrder(t *testing.T) {
	assert.Equal(t, []string{
		"EntityResolved", "EntityMatch", "SeasonMatch", "KnownBadRelease",
		"ProtocolAllowed", "IndexerFlags", "Seeders", "Language",
		"QualityAllowed", "Size", "ForbiddenTerms", "RequiredTerms",
		"CustomFormatScore", "Blocklisted", "HistoryBetterOrEqual",
		"UpgradeAllowed", "Delay",
	}, DefaultChain().Names())
	assert.Equal(t, []string{"EntityResolved", "EntityMatch", "SeasonMatch", "QualityAllowed", "UpgradeAllowed"}, ImportChain().Names())
}

func TestChainCollectsEveryRejection(t *testing.T) {
	calls := 0
	ch := NewChain(
		stubSpec{name: "A", verdict: Reject("First", "a"), calls: &calls},
		stubSpec{name: "B", verdict: Accept(), calls: &calls},
		stubSpec{name: "C", verdict: Temporary("Later", "c"), calls: &calls},
	)
	out := ch.Evaluate(models.Candidate{}, &Input{})

	assert.Equal(t, 3, calls)
	require.Len(t, out.Rejections, 2)
	assert.Equal(t, models.Rejection{Spec: "A", Reason: "First", Detail: "a", Severity: models.SeverityPermanent}, out.Rejections[0])
	assert.Equal(t, models.SeverityTemporary, out.Rejections[1].Severity)
	assert.False(t, out.Accepted())
	assert.False(t, out.TemporarilyRejected())
}

func TestChainFailFastStops(t *testing.T) {
	calls := 0
	ch := NewChain(
		stubSpec{name: "Gate", verdict: Reject("Stop", ""), failFast: true, calls: &calls},
		stubSpec{name: "Next", verdict: Reject("Never", ""), calls: &calls},
	)
	out := ch.Evaluate(models.Candidate{}, &Input{})
	assert.Equal(t, 1, calls)
	require.Len(t, out.Rejections, 1)
	assert.Equal(t, "Stop", out.Rejections[0].Reason)

	calls = 0
	ch = NewChain(
		stubSpec{name: "Gate", verdict: Accept(), failFast: true, calls: &calls},
		stubSpec{name: "Next", verdict: Accept(), calls: &calls},
	)
	assert.True(t, ch.Evaluate(models.Candidate{}, &Input{}).Accepted())
	assert.Equal(t, 2, calls)
}

func TestChainIsolatesPanics(t *testing.T) {
	calls := 0
	ch := NewChain(
		panickingSpec{},
		stubSpec{name: "After", verdict: Accept(), calls: &calls},
	)
	out := ch.Evaluate(models.Candidate{Release: models.RawRelease{Title: "x"}}, &Input{})

	assert.Equal(t, 1, calls, "specs after a panic still run")
	require.Len(t, out.Rejections, 1)
	assert.Equal(t, "Panicking", out.Rejections[0].Spec)
	assert.Equal(t, ReasonSpecFault, out.Rejections[0].Reason)
	assert.Equal(t, "rule exploded", out.Rejections[0].Detail)
	assert.Equal(t, models.SeverityPermanent, out.Rejections[0].Severity)
}

func TestChainDoesNotMutateInput(t *testing.T) {
	in := models.Candidate{Rejections: []models.Rejection{{Spec: "Earlier", Reason: "Kept"}}}
	out := NewChain(stubSpec{name: "A", verdict: Reject("New", "")}).Evaluate(in, &Input{})
	assert.Len(t, in.Rejections, 1)
	assert.Len(t, out.Rejections, 2)
}
