package images

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var errBadDataURI = errors.New("malformed data URI")

// decodeDataURI returns payload of "data:[<mediatype>][;base64],<data>".
// Media type is ignored, content is sniffed later anyway.
func decodeDataURI(uri string) ([]byte, error) {
	head, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return nil, errBadDataURI
	}

	if strings.HasSuffix(strings.ToLower(head), ";base64") {
		// line breaks and spaces are common in hand written markup
		payload = strings.Map(func(r rune) rune {
			if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
				return -1
			}
			return r
		}, payload)
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			if data, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
				return nil, fmt.Errorf("%w: %w", errBadDataURI, err)
			}
		}
		return data, nil
	}

	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadDataURI, err)
	}
	return []byte(data), nil
}
