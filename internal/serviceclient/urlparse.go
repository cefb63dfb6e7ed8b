package serviceclient

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseFileID extracts the "{id}" path component from a file download
// URL of the shape "https://.../file/{id}/{version}/file", as returned
// in a FileAsset's URL field. It is used to recover which File a
// pre-signed download link belongs to without a separate lookup.
func ParseFileID(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse file url: %w", err)
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i, segment := range segments {
		if segment == "file" && i+1 < len(segments) {
			return segments[i+1], nil
		}
	}
	return "", fmt.Errorf("parse file url: no file id in %q", rawURL)
}
