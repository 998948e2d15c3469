package api

import (
	"encoding/json"
	"log"
	"net/http"

	"assessment-backend/transport"
)

func writeJSON(w http.ResponseWriter, status int, resp transport.APIResponse) {
	resp.Status = status
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func success(w http.ResponseWriter, data interface{}, message string) {
	writeJSON(w, http.StatusOK, transport.APIResponse{Success: true, Message: message, Data: data})
}

func failure(w http.ResponseWriter, status int, message string, detail interface{}) {
	writeJSON(w, status, transport.APIResponse{Success: false, Message: message, Error: detail})
}

type errorDetail struct {
	Error string `json:"error"`
}
