package shared

import (
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-certs/core"
	"github.com/trezcool/masomo-certs/core/certificate"
	"github.com/trezcool/masomo-certs/storage/localstore"
)

// NewPipeline assembles the certificate service described by conf.
// closeFn releases the local store.
func NewPipeline(conf *core.Config, logger core.Logger, recorder certificate.Recorder) (svc *certificate.Service, closeFn func() error, err error) {
	fonts, err := certificate.LoadFontSet(conf.Render.FontRegular, conf.Render.FontBold)
	if err != nil {
		return nil, nil, err
	}
	var logo certificate.LogoSource
	if conf.Render.LogoURL != "" {
		logo = certificate.NewHTTPLogoSource(conf.Render.LogoURL, conf.Render.LogoTimeout)
	}

	store, closeFn, err := localstore.Open(conf, logger)
	if err != nil {
		return nil, nil, errors.Wrap(err, "setting up local storage")
	}

	svc = certificate.NewService(
		store,
		certificate.NewCanvasRenderer(certificate.DefaultLayout(), fonts, logo, logger),
		certificate.NewHTTPUploader(conf.Upload.UploadURL(), conf.Upload.Timeout),
		recorder,
		logger,
	)
	return svc, closeFn, nil
}
