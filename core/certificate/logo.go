package certificate

import (
	"context"
	"image"
	_ "image/jpeg" // register decoders
	_ "image/png"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// LogoSource provides the academy logo drawn on certificates.
type LogoSource interface {
	Logo(ctx context.Context) (image.Image, error)
}

// HTTPLogoSource downloads the logo from a fixed URL on every call.
type HTTPLogoSource struct {
	url    string
	client *http.Client
}

var _ LogoSource = (*HTTPLogoSource)(nil)

func NewHTTPLogoSource(url string, timeout time.Duration) *HTTPLogoSource {
	return &HTTPLogoSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (src *HTTPLogoSource) Logo(ctx context.Context) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating logo request")
	}
	res, err := src.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetching logo")
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetching logo: status %d", res.StatusCode)
	}
	img, _, err := image.Decode(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "decoding logo")
	}
	return img, nil
}
