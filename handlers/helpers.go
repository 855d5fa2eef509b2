package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Dosada05/esports-tournament-engine/services"
	"github.com/go-chi/chi/v5"
)

type jsonResponse map[string]interface{}

const maxBodyBytes = 1_048_576

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBodyBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	if err := writeJSON(w, status, jsonResponse{"error": message}, nil); err != nil {
		slog.ErrorContext(r.Context(), "failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusNotFound, err.Error())
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unprocessableResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
}

// mapProgressionErrorToHTTP translates progression service errors into HTTP responses.
func mapProgressionErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrTournamentNotFound),
		errors.Is(err, services.ErrPhaseNotFound):
		notFoundResponse(w, r, err)

	case errors.Is(err, services.ErrPhaseAlreadyCompleted),
		errors.Is(err, services.ErrTournamentNotAdvanceable),
		errors.Is(err, services.ErrConcurrentModification),
		errors.Is(err, services.ErrTournamentBusy),
		errors.Is(err, services.ErrTournamentNameConflict):
		conflictResponse(w, r, conflictMessage(err))

	case errors.Is(err, services.ErrDuplicatePhaseName),
		errors.Is(err, services.ErrInvalidTournament):
		unprocessableResponse(w, r, err)

	case errors.Is(err, services.ErrPersistenceFailure):
		slog.ErrorContext(r.Context(), "tournament progression not saved", slog.Any("error", err))
		errorResponse(w, r, http.StatusInternalServerError, "failed to save tournament progression, retry the request")

	default:
		serverErrorResponse(w, r, err)
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrConcurrentModification):
		return services.ErrConcurrentModification.Error()
	case errors.Is(err, services.ErrTournamentBusy):
		return services.ErrTournamentBusy.Error()
	}
	return err.Error()
}

func getIDFromURL(r *http.Request, paramName string) (int, error) {
	idStr := chi.URLParam(r, paramName)
	if idStr == "" {
		return 0, fmt.Errorf("missing %s in URL path", paramName)
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %q", paramName, idStr)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid %s value: %d", paramName, id)
	}
	return id, nil
}

// getNameFromURL returns a path parameter that may carry spaces or other
// escaped characters, such as a phase name.
func getNameFromURL(r *http.Request, paramName string) (string, error) {
	raw := chi.URLParam(r, paramName)
	name, err := url.PathUnescape(raw)
	if err != nil {
		name = raw
	}
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("missing %s in URL path", paramName)
	}
	return name, nil
}
