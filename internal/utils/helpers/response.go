package helpers

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse — тело любого ответа с ошибкой.
// Error заполняется только в dev-окружении.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type MessageResponse struct {
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

func Error(w http.ResponseWriter, status int, errMsg string) {
	JSON(w, status, ErrorResponse{Message: errMsg})
}

// ErrorWithDetail добавляет к ответу текст внутренней ошибки (для отладки).
func ErrorWithDetail(w http.ResponseWriter, status int, errMsg, detail string) {
	JSON(w, status, ErrorResponse{Message: errMsg, Error: detail})
}

func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, MessageResponse{Message: msg})
}
