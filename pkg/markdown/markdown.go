// Package markdown flattens markdown documents into plain prose.
package markdown

import (
	"html"
	"regexp"
	"strings"

	"github.com/russross/blackfriday/v2"
)

var (
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern  = regexp.MustCompile(`<[^>]*>`)
)

// RemoveLinks keeps the text of markdown links and drops bare URLs.
func RemoveLinks(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1")
	return urlPattern.ReplaceAllString(input, "")
}

// ToText renders md and strips the resulting HTML, collapsing whitespace.
func ToText(md string) string {
	rendered := blackfriday.Run([]byte(RemoveLinks(md)), blackfriday.WithNoExtensions())
	text := tagPattern.ReplaceAllString(string(rendered), "")
	return strings.Join(strings.Fields(html.UnescapeString(text)), " ")
}
