package service

import (
	"encoding/json"
	"net/http"
)

// WriteHttpError writes a standard JSON error response to the http.ResponseWriter.
func WriteHttpError(w http.ResponseWriter, httpCode int, message string) {
	resp := map[string]interface{}{
		"status":  "error",
		"code":    httpCode,
		"message": message,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpCode)
	json.NewEncoder(w).Encode(resp)
}

// WriteHttpSuccess writes a standard JSON success envelope.
func WriteHttpSuccess(w http.ResponseWriter, data interface{}) {
	resp := map[string]interface{}{
		"status": "success",
		"code":   http.StatusOK,
		"data":   data,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}
