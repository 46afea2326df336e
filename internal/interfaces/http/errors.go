package httpinterface

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-yield/internal/core/domain"
	"github.com/tdex-network/tdex-yield/internal/infrastructure/devnet"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{domain.ErrInvalidAmount, http.StatusBadRequest},
	{domain.ErrInvalidPath, http.StatusBadRequest},
	{devnet.ErrUnknownToken, http.StatusBadRequest},
	{domain.ErrUnauthorized, http.StatusForbidden},
	{domain.ErrOperationNotFound, http.StatusNotFound},
	{domain.ErrEmptyPosition, http.StatusConflict},
	{domain.ErrReentrantCall, http.StatusConflict},
	{domain.ErrControllerBusy, http.StatusConflict},
	{domain.ErrSlippageExceeded, http.StatusConflict},
	{domain.ErrExpired, http.StatusConflict},
	{domain.ErrTransferFailed, http.StatusUnprocessableEntity},
	{domain.ErrInsufficientBalance, http.StatusUnprocessableEntity},
	{domain.ErrInsufficientAllowance, http.StatusUnprocessableEntity},
	{domain.ErrMarketRejected, http.StatusServiceUnavailable},
	{domain.ErrInsufficientLiquidity, http.StatusServiceUnavailable},
	{domain.ErrStalePrice, http.StatusServiceUnavailable},
}

func statusFromError(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("http: internal error")
	}
	writeJSONError(w, status, err)
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSONError(w, http.StatusBadRequest, err)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).Error("http: failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
