package decision

import (
	"testing"

	"novagrab/models"

	"github.com/stretchr/testify/assert"
)

func ranked(guid string, quality models.QualityModel, protocol models.Protocol, size int64) models.Candidate {
	return models.Candidate{
		Release: models.RawRelease{GUID: guid, Protocol: protocol, SizeBytes: size},
		Parsed:  models.ParsedReleaseInfo{Quality: quality},
	}
}

func guids(cands []models.Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Release.GUID
	}
	return out
}

func TestQualityWeight(t *testing.T) {
	p := NewPrioritizer(hdProfile(), models.ProtocolUsenet, false)
	q := qm("Bluray-1080p")
	assert.Equal(t, 8*100+0*10+1, p.QualityWeight(q))
	q.Revision = models.Revision{Version: 2, Real: 1}
	assert.Equal(t, 8*100+1*10+2, p.QualityWeight(q))
	assert.Equal(t, 0*100+1, p.QualityWeight(qm("Remux-2160p")))
}

// Identical quality, no seeding tiebreak: the smaller release wins.
func TestSmallerReleaseFirst(t *testing.T) {
	p := NewPrioritizer(hdProfile(), models.ProtocolUsenet, false)
	cands := []models.Candidate{
		ranked("big", qm("WEBDL-1080p"), models.ProtocolTorrent, 3400<<20),
		ranked("small", qm("WEBDL-1080p"), models.ProtocolTorrent, 1200<<20),
	}
	p.Sort(cands)
	assert.Equal(t, []string{"small", "big"}, guids(cands))
}

func TestPriorityKeys(t *testing.T) {
	p := NewPrioritizer(hdProfile(), models.ProtocolUsenet, false)
	scored := ranked("scored", qm("HDTV-720p"), models.ProtocolTorrent, 5<<30)
	scored.CustomFormatScore = 10
	proper := qm("WEBDL-1080p")
	proper.Revision.Version = 2

	cands := []models.Candidate{
		ranked("webdl-torrent", qm("WEBDL-1080p"), models.ProtocolTorrent, 1<<30),
		ranked("webdl-usenet", qm("WEBDL-1080p"), models.ProtocolUsenet, 2<<30),
		ranked("webdl-proper", proper, models.ProtocolTorrent, 3<<30),
		ranked("bluray", qm("Bluray-1080p"), models.ProtocolTorrent, 9<<30),
		scored,
	}
	p.Sort(cands)
	assert.Equal(t, []string{"scored", "bluray", "webdl-proper", "webdl-usenet", "webdl-torrent"}, guids(cands))
}

func TestSeedingTiebreak(t *testing.T) {
	a := ranked("few-seeders", qm("WEBDL-1080p"), models.ProtocolTorrent, 1<<30)
	a.Release.Seeders = intPtr(3)
	b := ranked("many-seeders", qm("WEBDL-1080p"), models.ProtocolTorrent, 2<<30)
	b.Release.Seeders = intPtr(300)

	cands := []models.Candidate{a, b}
	NewPrioritizer(hdProfile(), models.ProtocolTorrent, true).Sort(cands)
	assert.Equal(t, []string{"many-seeders", "few-seeders"}, guids(cands))

	cands = []models.Candidate{b, a}
	NewPrioritizer(hdProfile(), models.ProtocolTorrent, false).Sort(cands)
	assert.Equal(t, []string{"few-seeders", "many-seeders"}, guids(cands))
}

func TestEqualKeysKeepResponseOrder(t *testing.T) {
	p := NewPrioritizer(hdProfile(), models.ProtocolUsenet, false)
	cands := []models.Candidate{
		ranked("first", qm("WEBDL-1080p"), models.ProtocolUsenet, 0),
		ranked("second", qm("WEBDL-1080p"), models.ProtocolUsenet, 0),
		ranked("sized", qm("WEBDL-1080p"), models.ProtocolUsenet, 1<<30),
		ranked("third", qm("WEBDL-1080p"), models.ProtocolUsenet, 0),
	}
	for i := 0; i < 5; i++ {
		p.Sort(cands)
		assert.Equal(t, []string{"sized", "first", "second", "third"}, guids(cands))
	}
}
