package webapi

import (
	"encoding/json"
	logger "log"
	"net/http"

	"github.com/routehaul/hosplan/foundation/apperror"
)

//errorResponse is the uniform error body every endpoint returns.
type errorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

//respond writes v as the JSON body with the given status.
func respond(log *logger.Logger, w http.ResponseWriter, status int, v interface{}) {
	if v == nil {
		w.WriteHeader(status)
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("webapi: error marshaling response: %v", err)
		http.Error(w, "Error serving request", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		log.Printf("webapi: error writing response: %v", err)
	}
}

//respondError maps an error kind to its HTTP status. This is the only place
//that conversion happens.
func respondError(log *logger.Logger, w http.ResponseWriter, err error) {
	kind := apperror.KindOf(err)
	status := statusOf(kind)
	if status >= http.StatusInternalServerError {
		log.Printf("webapi: internal error: %v", err)
	}

	message := apperror.MessageOf(err)
	if kind == apperror.Internal {
		//internal details stay in the logs
		message = "internal server error"
	}
	respond(log, w, status, errorResponse{
		Error:   message,
		Code:    kind.Code(),
		Details: apperror.DetailsOf(err),
	})
}

func statusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.Validation:
		return http.StatusBadRequest
	case apperror.Unauthenticated:
		return http.StatusUnauthorized
	case apperror.Forbidden:
		return http.StatusForbidden
	case apperror.NotFound:
		return http.StatusNotFound
	case apperror.Conflict:
		return http.StatusConflict
	case apperror.RateLimited:
		return http.StatusTooManyRequests
	case apperror.UpstreamInvalid:
		return http.StatusUnprocessableEntity
	case apperror.UpstreamTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

//decodeBody parses a JSON request body into v.
func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperror.Wrap(apperror.Validation, err, "request body is not valid JSON")
	}
	return nil
}
