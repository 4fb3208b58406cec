package composer

import (
	"fmt"
	"net/url"

	"bachbot/internal/catalog"
)

const postTemplate = "🎼 Daily Bach: %s\n\n" +
	"Discover this masterpiece by Johann Sebastian Bach:\n" +
	"%s\n\n" +
	"#Bach #ClassicalMusic #BWV%d #DailyBach #BaroqueMusic"

// Post is the text sent to Mastodon together with what it was built from.
type Post struct {
	Entry catalog.Entry
	URL   string
	Text  string
}

func SearchQuery(id int) string {
	return fmt.Sprintf("Bach BWV %d", id)
}

// SearchURL appends the percent-encoded query for id to base. Spaces become
// %20.
func SearchURL(base string, id int) string {
	return base + url.PathEscape(SearchQuery(id))
}

func ComposePost(title, link string, id int) string {
	return fmt.Sprintf(postTemplate, title, link, id)
}

func Compose(searchBase string, id int) Post {
	entry := catalog.Lookup(id)
	link := SearchURL(searchBase, id)
	return Post{
		Entry: entry,
		URL:   link,
		Text:  ComposePost(entry.Title, link, id),
	}
}
