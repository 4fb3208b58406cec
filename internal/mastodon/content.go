package mastodon

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText renders the HTML body Mastodon returns for a status as plain
// text: one paragraph per <p>, <br> as a newline.
func PlainText(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content
	}
	doc.Find("br").ReplaceWithHtml("\n")

	var paragraphs []string
	doc.Find("p").Each(func(i int, s *goquery.Selection) {
		paragraphs = append(paragraphs, strings.TrimSpace(s.Text()))
	})
	if len(paragraphs) == 0 {
		return strings.TrimSpace(doc.Text())
	}
	return strings.Join(paragraphs, "\n\n")
}
