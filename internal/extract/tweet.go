package extract

import "regexp"

var tweetIDPattern = regexp.MustCompile(`\bstatus(?:es)?/(\d+)`)

// ExtractTweetID returns the numeric status ID of a tweet URL.
// Trailing path segments and query strings are ignored.
func ExtractTweetID(rawURL string) (string, bool) {
	m := tweetIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ExtractTweetIDs returns the IDs of the tweet URLs among urls, in order
func ExtractTweetIDs(urls []string) []string {
	var ids []string
	for _, u := range urls {
		if id, ok := ExtractTweetID(u); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
