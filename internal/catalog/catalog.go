// Package catalog knows the BWV number range and the titles of a handful of
// well-known works.
package catalog

import (
	"fmt"
	"math/rand/v2"
)

const (
	MinID    = 1
	MaxID    = 1080
	Composer = "Johann Sebastian Bach"
)

var knownTitles = map[int]string{
	1:    "Wie schön leuchtet der Morgenstern (Cantata)",
	2:    "Ach Gott, vom Himmel sieh darein (Cantata)",
	3:    "Ach Gott, wie manches Herzeleid (Cantata)",
	4:    "Christ lag in Todes Banden (Cantata)",
	5:    "Wo soll ich fliehen hin (Cantata)",
	6:    "Bleib bei uns, denn es will Abend werden (Cantata)",
	7:    "Christ unser Herr zum Jordan kam (Cantata)",
	8:    "Liebster Gott, wenn werd ich sterben? (Cantata)",
	9:    "Es ist das Heil uns kommen her (Cantata)",
	10:   "Meine Seel erhebt den Herren (Cantata)",
	140:  "Wachet auf, ruft uns die Stimme (Cantata)",
	147:  "Herz und Mund und Tat und Leben (Cantata)",
	244:  "St. Matthew Passion",
	245:  "St. John Passion",
	248:  "Christmas Oratorio",
	565:  "Toccata and Fugue in D minor",
	582:  "Passacaglia and Fugue in C minor",
	846:  "Well-Tempered Clavier Book I, Prelude and Fugue No. 1 in C major",
	847:  "Well-Tempered Clavier Book I, Prelude and Fugue No. 2 in C minor",
	988:  "Goldberg Variations",
	1080: "The Art of Fugue",
}

// Entry is one catalog number with its display title.
type Entry struct {
	ID         int
	KnownTitle string
	Title      string
	Composer   string
}

func (e Entry) Known() bool { return e.KnownTitle != "" }

// KnownTitle returns the static title for id, if there is one.
func KnownTitle(id int) (string, bool) {
	t, ok := knownTitles[id]
	return t, ok
}

// TitleFor returns "BWV {id}: {title}" for known works and "BWV {id}" for
// everything else.
func TitleFor(id int) string {
	if t, ok := knownTitles[id]; ok {
		return fmt.Sprintf("BWV %d: %s", id, t)
	}
	return fmt.Sprintf("BWV %d", id)
}

func Lookup(id int) Entry {
	known, _ := KnownTitle(id)
	return Entry{
		ID:         id,
		KnownTitle: known,
		Title:      TitleFor(id),
		Composer:   Composer,
	}
}

// RandomID draws uniformly from [MinID, MaxID]. A nil r uses the global source.
func RandomID(r *rand.Rand) int {
	if r == nil {
		return MinID + rand.IntN(MaxID-MinID+1)
	}
	return MinID + r.IntN(MaxID-MinID+1)
}
