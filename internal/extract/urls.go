// Package extract pulls URLs, tweet IDs and dates out of free text.
// Nothing here performs I/O; a missing match is an empty result, not an error.
package extract

import (
	"regexp"
	"strings"
)

var (
	urlPattern       = regexp.MustCompile(`https?://\S+`)
	slackLinkPattern = regexp.MustCompile(`<([^<>\s][^<>]*)>`)
	absoluteURL      = regexp.MustCompile(`^https?://\S+$`)
)

// ExtractURLs returns every absolute http(s) URL in text, in order of appearance.
// Duplicates are kept.
func ExtractURLs(text string) []string {
	return urlPattern.FindAllString(text, -1)
}

// ExtractURLsFromSlackText returns the URLs of Slack-formatted links (<url> or <url|label>).
// Within a span the first pipe-separated part that is an absolute URL wins, so
// <label|url> also resolves. Mentions and channel links carry no URL and are skipped.
// Bare URLs outside angle brackets are ignored.
func ExtractURLsFromSlackText(text string) []string {
	var urls []string
	for _, m := range slackLinkPattern.FindAllStringSubmatch(text, -1) {
		for _, part := range strings.Split(m[1], "|") {
			part = strings.TrimSpace(part)
			if absoluteURL.MatchString(part) {
				urls = append(urls, part)
				break
			}
		}
	}
	return urls
}

// IsURL reports whether s is a single absolute http(s) URL
func IsURL(s string) bool {
	return absoluteURL.MatchString(strings.TrimSpace(s))
}
