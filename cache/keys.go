package cache

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/poiesic/notectx/core"
)

// Key prefix for cached documents.
const documentPrefix = "docrec"

// makeDocumentKey generates a cache key from the content hash of the
// normalized URL, so trivially different spellings of the same address
// share one entry.
func makeDocumentKey(rawURL string) []byte {
	id := core.IDFromContent(normalizeURL(rawURL))
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// normalizeURL lowercases the scheme and host, drops the fragment, and
// strips default ports. Unparseable URLs are used as-is.
func normalizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Fragment = ""

	host := strings.ToLower(parsed.Host)
	switch {
	case parsed.Scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case parsed.Scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	parsed.Host = host

	return parsed.String()
}
