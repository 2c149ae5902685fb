package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradewatch/core"
	"github.com/trezcool/gradewatch/core/assignment"
	"github.com/trezcool/gradewatch/core/student"
	"github.com/trezcool/gradewatch/services/studentvue"
)

var errInvalidQuery = errors.New("invalid query parameters")

// statusOf maps the domain errors a handler may return to their HTTP status.
func statusOf(err error) int {
	switch errors.Cause(err) {
	case student.ErrStudentNotFound, student.ErrTermNotFound, student.ErrReportPeriodNotFound:
		return http.StatusNotFound
	case assignment.ErrInvalidCutoff, assignment.ErrNoWindow:
		return http.StatusBadRequest
	}
	if studentvue.IsRequestError(err) {
		return http.StatusBadGateway
	}
	return 0
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
func newAppHTTPErrorHandler(logger core.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			if code = statusOf(err); code != 0 {
				message = err.Error()
				break
			}
			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			logger.Error(msg, errors.Wrap(err, msg), map[string]interface{}{"path": ctx.Request().URL.Path})
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
