package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/articles/internal/validator"
)

type envelope map[string]any

var errInvalidIDParameter = xerrors.Message("invalid id parameter")

// readJSON decodes a single JSON value into dst. Fields dst does not know,
// such as server managed article fields, are ignored.
func (app *application) readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	const maxBytes = 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {

		var (
			syntaxError           *json.SyntaxError
			unmarshalTypeError    *json.UnmarshalTypeError
			invalidUnmarshalError *json.InvalidUnmarshalError
			maxBytesError         *http.MaxBytesError
		)

		switch {
		case errors.As(err, &syntaxError):
			return xerrors.Newf("body contains badly-formed JSON at (character %d)", syntaxError.Offset)

		case errors.Is(err, io.ErrUnexpectedEOF):
			return xerrors.Newf("body contains badly-formed JSON")

		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return xerrors.Newf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return xerrors.Newf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return xerrors.Newf("body must not be empty")

		case errors.As(err, &maxBytesError):
			return xerrors.Newf("body must not be larger than %d bytes", maxBytes)

		case errors.As(err, &invalidUnmarshalError):
			return xerrors.Newf("programmer error: invalid unmarshal target: %w", err)

		default:
			return xerrors.Newf("error decoding JSON: %w", err)
		}
	}

	if err := decoder.Decode(&struct{}{}); err != nil && !errors.Is(err, io.EOF) {
		return xerrors.New("body must contain only a single JSON value")
	}

	return nil
}

func (app *application) writeJSON(w http.ResponseWriter, status int, data map[string]any, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return xerrors.New(err)
	}

	// Append a newline to make it easier to view in terminal applications.
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(js); err != nil {
		app.logger.Error(err.Error())
		return err
	}

	return nil
}

func (app *application) readString(query url.Values, key string, defaultValue string) string {
	s := strings.TrimSpace(query.Get(key))
	if s == "" {
		return defaultValue
	}
	return s
}

func (app *application) readInt(query url.Values, key string, defaultValue int64, v *validator.Validator) int64 {
	s := strings.TrimSpace(query.Get(key))
	if s == "" {
		return defaultValue
	}

	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		v.AddError(key, "must be an integer value")
		return defaultValue
	}
	return i
}

func (app *application) readIDParam(r *http.Request) (int64, error) {
	params := httprouter.ParamsFromContext(r.Context())

	id, err := strconv.ParseInt(params.ByName("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, xerrors.New(errInvalidIDParameter)
	}
	return id, nil
}
