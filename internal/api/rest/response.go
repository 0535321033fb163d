package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/origamishop/orders/internal/domain"
	"github.com/origamishop/orders/internal/service/orders"
)

// writeJSON пишет данные как JSON-ответ с заданным статусом.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError пишет JSON-конверт с сообщением об ошибке.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeDomainError переводит доменную ошибку в HTTP-статус.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case domain.IsInsufficientStock(err),
		errors.Is(err, domain.ErrDuplicateOrderID),
		errors.Is(err, domain.ErrStatusConflict),
		errors.Is(err, domain.ErrOrderNotDeletable),
		errors.Is(err, domain.ErrOrderVersionConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, orders.ErrValidation),
		errors.Is(err, domain.ErrStatusInvalid),
		errors.Is(err, domain.ErrOrderTypeInvalid),
		errors.Is(err, domain.ErrProductNotFound):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
