package helpers

import (
	"encoding/json"
	"net/http"
)

// Response — единая форма ответа об ошибке и простых сообщений.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		return
	}
}

func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Response{Success: status < http.StatusBadRequest, Message: msg})
}

func Error(w http.ResponseWriter, status int, errMsg string) {
	JSON(w, status, Response{Success: false, Message: errMsg})
}
