package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/articles/internal/auth"
	"github.com/siahsang/articles/internal/metrics"
	"github.com/siahsang/articles/internal/store"
	"github.com/siahsang/articles/internal/web"
)

const requestIDHeader = "X-Request-ID"

func (app *application) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		authorization := r.Header.Get("Authorization")
		if authorization == "" {
			next.ServeHTTP(w, app.auth.SetIdentity(r, auth.Anonymous()))
			return
		}

		scheme, token, ok := strings.Cut(authorization, " ")
		if !ok || (scheme != "Token" && scheme != "Bearer") || strings.TrimSpace(token) == "" {
			app.invalidAuthenticationTokenResponse(w, r, xerrors.New("Authorization header must be in the format 'Token <token>' or 'Bearer <token>'"))
			return
		}

		claim, err := app.auth.Authenticate(strings.TrimSpace(token))
		if err != nil {
			app.invalidAuthenticationTokenResponse(w, r, err)
			return
		}

		identity, err := app.core.IdentityFor(r.Context(), claim.Username)
		if err != nil {
			if errors.Is(err, store.ErrNoRecordFound) {
				app.invalidAuthenticationTokenResponse(w, r, err)
				return
			}
			app.internalErrorResponse(w, r, err)
			return
		}

		next.ServeHTTP(w, app.auth.SetIdentity(r, identity))
	})
}

func (app *application) requireAuthenticatedUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !app.auth.IsUserAuthenticated(r) {
			app.authenticationRequiredResponse(w, r, xerrors.Newf("authentication required"))
			return
		}
		next(w, r)
	}
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.internalErrorResponse(w, r, xerrors.New(fmt.Sprintf("panic: %v", err)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestID keeps a client supplied X-Request-ID or assigns a new one, and
// echoes it on the response.
func (app *application) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, web.WithRequestID(r, id))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// instrument records request count, latency and in-flight requests under
// the route pattern.
func (app *application) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
