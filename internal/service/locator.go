package service

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/podiumlabs/orator_service/internal/errors"
)

// ObjectKeyFromURL resolves an opaque audio reference (typically the public
// URL of an uploaded recording) to the object key inside the given bucket.
// The bucket name doubles as the path marker: everything after "/<bucket>/"
// is the key, URL-decoded. References that parse as URLs are handled on the
// path; anything else falls back to a pattern match on the raw string. A
// reference carrying no marker at all fails with MalformedReference before
// any network call is made.
func ObjectKeyFromURL(audioURL, bucket string) (string, error) {
	marker := "/" + bucket + "/"

	if u, err := url.Parse(audioURL); err == nil {
		path := u.EscapedPath()
		if idx := strings.Index(path, marker); idx != -1 {
			key, err := url.PathUnescape(path[idx+len(marker):])
			if err == nil && key != "" {
				return key, nil
			}
		}
	}

	re := regexp.MustCompile(regexp.QuoteMeta(marker) + `(.+)$`)
	if m := re.FindStringSubmatch(audioURL); m != nil {
		if key, err := url.PathUnescape(m[1]); err == nil && key != "" {
			return key, nil
		}
		return m[1], nil
	}

	return "", errors.MalformedReference("could not parse storage path from audio_url")
}
