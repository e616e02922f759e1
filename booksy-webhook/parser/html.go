package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	blockTagPattern = regexp.MustCompile(`(?i)<br\s*/?>|</(?:p|div|tr|li|h[1-6]|table|ul|ol)>`)
	anyTagPattern   = regexp.MustCompile(`(?s)<[^>]*>`)
	numEntity       = regexp.MustCompile(`&#(\d+);`)
	manyNewlines    = regexp.MustCompile(`\n{3,}`)
)

// flattenHTML converts Booksy HTML into the plain-text substrate every
// field pattern matches against: block-level closers become newlines, the
// rest of the markup is stripped, and the handful of entities the partner
// actually sends are decoded. Never match against the raw HTML.
func flattenHTML(html string) string {
	text := strings.ReplaceAll(html, "\r\n", "\n")
	text = blockTagPattern.ReplaceAllString(text, "\n")
	text = anyTagPattern.ReplaceAllString(text, "")

	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = numEntity.ReplaceAllStringFunc(text, func(m string) string {
		code, err := strconv.Atoi(numEntity.FindStringSubmatch(m)[1])
		if err != nil {
			return m
		}
		return string(rune(code))
	})

	text = manyNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// firstBoldText returns the first <b> or <strong> span of the raw HTML.
// Booksy bolds the client name, so this is the last-resort name fallback
// when neither subject nor body patterns match.
func firstBoldText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("b, strong").First().Text())
}
