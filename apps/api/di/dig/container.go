package dig_container

import (
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/masomo-certs/apps/api/echo"
	"github.com/trezcool/masomo-certs/apps/shared"
	"github.com/trezcool/masomo-certs/core"
	"github.com/trezcool/masomo-certs/core/certificate"
	logsvc "github.com/trezcool/masomo-certs/services/logger"
	metricsvc "github.com/trezcool/masomo-certs/services/metrics"
)

type (
	StorageLoggerParam struct {
		dig.In
		Logger core.Logger `name:"storageLogger"`
	}

	// StoreCloser releases the local store backing the certificate service.
	StoreCloser func() error
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newStorageLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "STORAGE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newRecorder(conf *core.Config) *metricsvc.PrometheusRecorder {
	return metricsvc.NewPrometheusRecorder(conf.AppName)
}

func asRecorder(r *metricsvc.PrometheusRecorder) certificate.Recorder {
	return r
}

func asGatherer(r *metricsvc.PrometheusRecorder) prometheus.Gatherer {
	return r.Registry()
}

func newCertificateService(conf *core.Config, loggerParam StorageLoggerParam, recorder certificate.Recorder) (*certificate.Service, StoreCloser, error) {
	svc, closeFn, err := shared.NewPipeline(conf, loggerParam.Logger, recorder)
	if err != nil {
		return nil, nil, err
	}
	return svc, closeFn, nil
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newStorageLogger, dig.Name("storageLogger")))
	must(c.Provide(newRecorder))
	must(c.Provide(asRecorder))
	must(c.Provide(asGatherer))
	must(c.Provide(newCertificateService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
