package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, map[string]string{"message": message})
}

// respondValidation emits a 422 with a per-field error map, the shape the
// frontend's form handling expects.
func respondValidation(w http.ResponseWriter, errs map[string][]string) {
	respondWithJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"message": "The given data was invalid.",
		"errors":  errs,
	})
}

func isValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func queryInt(r *http.Request, name string, defaultValue int) int {
	if value := r.URL.Query().Get(name); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
