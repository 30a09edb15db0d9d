package main

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/articles/internal/core"
	"github.com/siahsang/articles/internal/web"
)

type AppError struct {
	ErrorStack   error
	ErrorMessage string
	ErrorDetails map[string]string
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, appError *AppError) {
	app.errorResponse(w, r, http.StatusBadRequest, appError)
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, &AppError{
		ErrorMessage: "The requested resource could not be found.",
	})
}

func (app *application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusMethodNotAllowed, &AppError{
		ErrorMessage: "The " + r.Method + " method is not supported for this resource.",
	})
}

func (app *application) authenticationRequiredResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusUnauthorized, &AppError{
		ErrorStack:   err,
		ErrorMessage: "Authentication credentials were not provided.",
	})
}

func (app *application) invalidAuthenticationTokenResponse(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("WWW-Authenticate", "Token")
	app.errorResponse(w, r, http.StatusUnauthorized, &AppError{
		ErrorStack:   err,
		ErrorMessage: "Invalid or missing authentication token.",
	})
}

func (app *application) forbiddenResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusForbidden, &AppError{
		ErrorStack:   err,
		ErrorMessage: "You do not have permission to perform this action.",
	})
}

func (app *application) internalErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusInternalServerError, &AppError{ErrorStack: err,
		ErrorMessage: "An internal server error occurred.",
	})
}

// coreErrorResponse maps the error kinds returned by core operations onto
// status codes. Anything unrecognised is an internal error.
func (app *application) coreErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationError *core.ValidationError
		missingParam    *core.MissingParameterError
	)

	switch {
	case errors.As(err, &validationError):
		app.badRequestResponse(w, r, &AppError{
			ErrorMessage: "Validation failed.",
			ErrorDetails: validationError.Fields,
		})
	case errors.As(err, &missingParam):
		app.badRequestResponse(w, r, &AppError{
			ErrorMessage: missingParam.Error(),
			ErrorDetails: map[string]string{missingParam.Name: "This query parameter is required."},
		})
	case errors.Is(err, core.ErrAuthenticationRequired):
		app.authenticationRequiredResponse(w, r, err)
	case errors.Is(err, core.ErrForbidden):
		app.forbiddenResponse(w, r, err)
	case errors.Is(err, core.ErrNotFound):
		app.notFoundResponse(w, r)
	default:
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, status int, appError *AppError) {
	errorDetails := map[string]any{
		"errorMessage": appError.ErrorMessage,
		"errorDetails": appError.ErrorDetails,
	}

	var attrs []slog.Attr
	attrs = append(attrs, slog.String("request_id", web.RequestID(r)))
	attrs = append(attrs, slog.String("request_url", r.URL.String()))
	attrs = append(attrs, slog.String("request_method", r.Method))
	attrs = append(attrs, slog.Int("status", status))
	if appError.ErrorStack != nil {
		attrs = append(attrs, slog.String("stack", xerrors.Sprint(appError.ErrorStack)))
	}

	for key, valueData := range appError.ErrorDetails {
		attrs = append(attrs, slog.Any(key, valueData))
	}

	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	app.logger.LogAttrs(r.Context(), level, "Error in handling request", attrs...)

	// The status line is already out when writing the body fails.
	if err := app.writeJSON(w, status, errorDetails, nil); err != nil {
		app.logger.Error("failed to write error response", slog.String("error", err.Error()))
	}
}
