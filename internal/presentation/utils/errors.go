package utils

import (
	"net/http"

	"github.com/hilthontt/retrochat/internal/gateway"
	"github.com/hilthontt/retrochat/internal/infrastructure/json"
)

// WriteGatewayError maps the gateway error taxonomy onto HTTP statuses.
func WriteGatewayError(w http.ResponseWriter, err error) {
	kind, ok := gateway.KindOf(err)
	if !ok {
		json.WriteInternalError(w, err)
		return
	}

	switch kind {
	case gateway.NotFound:
		json.WriteError(w, http.StatusNotFound, err, "Not found")
	case gateway.InvalidTransition:
		json.WriteError(w, http.StatusConflict, err, "Request already decided")
	case gateway.Validation:
		json.WriteValidationError(w, err)
	case gateway.CapacityExhausted:
		json.WriteError(w, http.StatusServiceUnavailable, err, "Capacity exhausted, try again later")
	default:
		json.WriteError(w, http.StatusServiceUnavailable, err, "Service unavailable")
	}
}
