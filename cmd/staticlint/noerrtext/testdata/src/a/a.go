package a

import (
	"errors"
	"fmt"
	"net/http"
)

var errStorage = errors.New("open tareas.json: permission denied")

func handler(w http.ResponseWriter, r *http.Request) {
	err := fmt.Errorf("read: %w", errStorage)

	http.Error(w, err.Error(), http.StatusInternalServerError)                 // want "internal error text sent to the client"
	http.Error(w, "failed: "+errStorage.Error(), http.StatusInternalServerError) // want "internal error text sent to the client"
	http.Error(w, "Error interno del servidor", http.StatusInternalServerError)
	http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
}
