package bluesky

import (
	"errors"
	"regexp"
	"strings"
)

var ErrMalformedAddress = errors.New("malformed bluesky address")

var (
	postURLPrefix = regexp.MustCompile(`(?i)^https?://(www\.)?bsky\.app/profile/`)
	didRegex      = regexp.MustCompile(`^did:[a-z]+:[a-zA-Z0-9._:%-]+$`)
)

// Address identifies one record in a repo. Repo is a handle or a DID.
type Address struct {
	Repo string
	RKey string
}

// ParsePostURL splits a bsky.app post link into its repo and record key.
func ParsePostURL(url string) (Address, error) {
	path := postURLPrefix.ReplaceAllString(url, "")
	if path == url {
		return Address{}, ErrMalformedAddress
	}

	segments := strings.Split(path, "/")
	if len(segments) < 3 || segments[0] == "" || segments[2] == "" {
		return Address{}, ErrMalformedAddress
	}

	return Address{Repo: segments[0], RKey: segments[2]}, nil
}

// ParseRecordURI decomposes an at:// URI. The repo is the first segment
// shaped like a DID and the key is the last segment.
func ParseRecordURI(uri string) (Address, error) {
	rest, ok := strings.CutPrefix(uri, "at://")
	if !ok {
		return Address{}, ErrMalformedAddress
	}

	segments := strings.Split(rest, "/")
	if len(segments) < 2 {
		return Address{}, ErrMalformedAddress
	}

	var did string
	for _, s := range segments {
		if didRegex.MatchString(s) {
			did = s
			break
		}
	}
	rkey := segments[len(segments)-1]
	if did == "" || rkey == "" || rkey == did {
		return Address{}, ErrMalformedAddress
	}

	return Address{Repo: did, RKey: rkey}, nil
}
