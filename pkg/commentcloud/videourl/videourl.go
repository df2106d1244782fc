// Package videourl extracts video identifiers from watch-page URLs.
package videourl

import (
	"fmt"
	"net/url"

	"github.com/cognicore/commentcloud/pkg/commentcloud/internalerr"
)

const (
	scheme = "https"
	host   = "www.youtube.com"
)

// ResolveID returns the first value of the "v" query parameter of a
// https://www.youtube.com/watch URL.
func ResolveID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", internalerr.ErrInvalidURL, rawURL, err)
	}
	if u.Scheme != scheme || u.Host != host || u.User != nil {
		return "", fmt.Errorf("%w: %s", internalerr.ErrInvalidURL, rawURL)
	}

	values, ok := u.Query()["v"]
	if !ok || len(values) == 0 || values[0] == "" {
		return "", fmt.Errorf("%w: %s", internalerr.ErrMissingVideoID, rawURL)
	}
	return values[0], nil
}
