package catalog

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitleForAlwaysStartsWithBWV(t *testing.T) {
	for id := MinID; id <= MaxID; id++ {
		prefix := fmt.Sprintf("BWV %d", id)
		got := TitleFor(id)
		if !strings.HasPrefix(got, prefix) {
			t.Fatalf("TitleFor(%d) = %q, want prefix %q", id, got, prefix)
		}
		// "BWV 1" must not be satisfied by "BWV 10..." alone.
		rest := strings.TrimPrefix(got, prefix)
		if rest != "" && !strings.HasPrefix(rest, ": ") {
			t.Fatalf("TitleFor(%d) = %q, unexpected suffix %q", id, got, rest)
		}
	}
}

func TestTitleForKnownWorks(t *testing.T) {
	tests := []struct {
		id   int
		want string
	}{
		{1, "BWV 1: Wie schön leuchtet der Morgenstern (Cantata)"},
		{140, "BWV 140: Wachet auf, ruft uns die Stimme (Cantata)"},
		{244, "BWV 244: St. Matthew Passion"},
		{245, "BWV 245: St. John Passion"},
		{248, "BWV 248: Christmas Oratorio"},
		{565, "BWV 565: Toccata and Fugue in D minor"},
		{582, "BWV 582: Passacaglia and Fugue in C minor"},
		{846, "BWV 846: Well-Tempered Clavier Book I, Prelude and Fugue No. 1 in C major"},
		{847, "BWV 847: Well-Tempered Clavier Book I, Prelude and Fugue No. 2 in C minor"},
		{988, "BWV 988: Goldberg Variations"},
		{1080, "BWV 1080: The Art of Fugue"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.id), func(t *testing.T) {
			assert.Equal(t, tt.want, TitleFor(tt.id))
		})
	}
}

func TestTitleForUnknownFallsBack(t *testing.T) {
	assert.Equal(t, "BWV 500", TitleFor(500))
	assert.Equal(t, "BWV 11", TitleFor(11))
	assert.Equal(t, "BWV 1079", TitleFor(1079))
}

func TestLookup(t *testing.T) {
	e := Lookup(988)
	assert.Equal(t, 988, e.ID)
	assert.True(t, e.Known())
	assert.Equal(t, "Goldberg Variations", e.KnownTitle)
	assert.Equal(t, "BWV 988: Goldberg Variations", e.Title)
	assert.Equal(t, Composer, e.Composer)

	e = Lookup(500)
	assert.False(t, e.Known())
	assert.Equal(t, "BWV 500", e.Title)
}

func TestRandomIDStaysInRange(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	lo, hi := MaxID, MinID
	for i := 0; i < 10000; i++ {
		id := RandomID(r)
		require.GreaterOrEqual(t, id, MinID)
		require.LessOrEqual(t, id, MaxID)
		lo = min(lo, id)
		hi = max(hi, id)
	}
	// 10k draws over 1080 values reach both ends with overwhelming probability.
	assert.Equal(t, MinID, lo)
	assert.Equal(t, MaxID, hi)
}

func TestRandomIDGlobalSource(t *testing.T) {
	for i := 0; i < 10000; i++ {
		id := RandomID(nil)
		if id < MinID || id > MaxID {
			t.Fatalf("RandomID(nil) = %d, out of [%d,%d]", id, MinID, MaxID)
		}
	}
}
