package api

import (
	"encoding/json"
	"net/http"

	"github.com/foxzi/listdash/internal/exchange"
)

func sendJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func sendError(w http.ResponseWriter, status int, message string) {
	sendJSON(w, status, exchange.ErrorResponse{Error: message})
}
