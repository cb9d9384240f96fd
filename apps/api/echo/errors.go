package echoapi

import (
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-certs/core"
	"github.com/trezcool/masomo-certs/core/certificate"
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch {
		case certificate.IsNotFound(err):
			code = http.StatusNotFound
			message = certificate.ErrNotFound.Error()
		case certificate.IsUploadFailed(err):
			code = http.StatusBadGateway
			message = err.Error()
		case errors.Is(err, certificate.ErrQuotaExceeded):
			code = http.StatusInsufficientStorage
			message = certificate.ErrQuotaExceeded.Error()
		case certificate.IsStorage(err):
			code = http.StatusInternalServerError
			message = certificate.ErrStorage.Error()
			logger.Error(err.Error(), err, requestExtras(ctx))
		default:
			code, message = handleError(err, ctx, logger, translator)
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

func handleError(err error, ctx echo.Context, logger core.Logger, translator ut.Translator) (int, interface{}) {
	switch origErr := errors.Cause(err).(type) {
	case *echo.BindingError:
		return origErr.Code, map[string]string{origErr.Field: fmt.Sprint(origErr.Message)}
	case *echo.HTTPError:
		if origErr.Internal != nil {
			if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
				origErr = herr
			}
		}
		return origErr.Code, origErr.Message
	case validator.ValidationErrors:
		return http.StatusBadRequest, core.TranslateErrors(origErr, translator)
	case *core.ValidationError:
		if origErr.Fields != nil {
			fldErrs := make(map[string]string, len(origErr.Fields))
			for _, fErr := range origErr.Fields {
				fldErrs[fErr.Field] = fErr.Error
			}
			return http.StatusBadRequest, fldErrs
		}
		return http.StatusBadRequest, origErr.Error()
	}

	// any other error is a server error
	msg := http.StatusText(http.StatusInternalServerError)
	logger.Error(msg, errors.Wrap(err, msg), requestExtras(ctx))
	return http.StatusInternalServerError, msg
}

func requestExtras(ctx echo.Context) map[string]interface{} {
	return map[string]interface{}{
		"requestId": ctx.Response().Header().Get(echo.HeaderXRequestID),
		"method":    ctx.Request().Method,
		"path":      ctx.Path(),
	}
}
