package response

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"slotkeeper/shared/constant"
	"slotkeeper/shared/failure"
	"slotkeeper/shared/logger"
)

// Data is the success envelope.
type Data[T any] struct {
	Data T `json:"data"`
}

// Error is the failure envelope. Server-side failures never echo the underlying error.
type Error struct {
	Error string `json:"error"`
}

func WithJSON[T any](writer http.ResponseWriter, code int, payload T) {
	write(writer, code, Data[T]{Data: payload})
}

// WithError maps err to its failure code. Anything that is not a domain failure is logged
// and reported as a generic internal error.
func WithError(writer http.ResponseWriter, err error) {
	code := failure.GetCode(err)
	message := err.Error()

	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Int("code", code).Msg("Request failed")

		message = http.StatusText(code)
	}

	write(writer, code, Error{Error: message})
}

func WithRequestLimitExceeded(writer http.ResponseWriter) {
	write(writer, http.StatusTooManyRequests, Error{Error: constant.ResponseErrorRequestLimitExceeded})
}

func WithPreparingShutdown(writer http.ResponseWriter) {
	write(writer, http.StatusServiceUnavailable, Error{Error: constant.ResponseErrorPrepareShutdown})
}

func write(writer http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.ErrorWithStack(err)

		writer.WriteHeader(http.StatusInternalServerError)

		return
	}

	writer.Header().Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)
	writer.WriteHeader(code)

	if _, err := writer.Write(body); err != nil {
		logger.ErrorWithStack(err)
	}
}
