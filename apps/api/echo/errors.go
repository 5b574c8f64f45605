package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

const serverErrorMessage = "Server error"

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errTokenRevoked       = echo.NewHTTPError(http.StatusUnauthorized, "token has been revoked")
	errInvalidCredentials = core.NewValidationError(errors.New("Invalid credentials"))
	errNotApproved        = core.NewForbiddenError(errors.New("Your registration is not approved yet."))
	errInvalidData        = "Invalid data"
)

// httpError is the body of every failed request.
type httpError struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// errorStatus maps an error returned by a handler to its HTTP status code.
func errorStatus(err error) int {
	switch origErr := errors.Cause(err).(type) {
	case *echo.HTTPError:
		if origErr == middleware.ErrJWTMissing {
			return http.StatusUnauthorized
		}
		return origErr.Code
	case validator.ValidationErrors, *core.ValidationError:
		return http.StatusBadRequest
	case *core.NotFoundError:
		return http.StatusNotFound
	case *core.ForbiddenError:
		return http.StatusForbidden
	case *core.ConflictError:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code := errorStatus(err)
		var body httpError

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			if msg, ok := origErr.Message.(string); ok {
				body.Message = msg
			} else {
				body.Message = http.StatusText(code)
			}
		case validator.ValidationErrors:
			body.Message = errInvalidData
			body.Errors = make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				body.Errors[vErr.Field()] = vErr.Translate(translator)
			}
		case *core.ValidationError:
			body.Message = origErr.Error()
			if len(origErr.Fields) > 0 {
				if body.Message == "" {
					body.Message = errInvalidData
				}
				body.Errors = make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					body.Errors[fErr.Field] = fErr.Error
				}
			}
		case *core.NotFoundError, *core.ForbiddenError, *core.ConflictError:
			body.Message = origErr.Error()
		default: // any other error is a server error; its detail stays in the logs
			body.Message = serverErrorMessage

			args := []interface{}{errors.WithStack(err)}
			if ai, ok := ctxIdentity(ctx); ok {
				args = append(args, ai.Identity)
			}
			logger.Error(serverErrorMessage, args...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, body)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
