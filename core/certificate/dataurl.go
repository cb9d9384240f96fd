package certificate

import (
	"encoding/base64"
	"strings"

	"github.com/pkg/errors"
)

const pngDataURLPrefix = "data:image/png;base64,"

var errInvalidDataURL = errors.New("invalid image data URL")

// EncodeDataURL embeds PNG bytes in a self-contained data URL.
func EncodeDataURL(png []byte) string {
	return pngDataURLPrefix + base64.StdEncoding.EncodeToString(png)
}

// DecodeDataURL returns the image bytes embedded in a base64 data URL.
func DecodeDataURL(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "data:") {
		return nil, errInvalidDataURL
	}
	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return nil, errInvalidDataURL
	}
	meta := s[len("data:"):comma]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, errors.Wrap(errInvalidDataURL, "not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(s[comma+1:])
	if err != nil {
		return nil, errors.Wrap(err, "decoding data URL")
	}
	return data, nil
}
