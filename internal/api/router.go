package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	captures := r.PathPrefix("/api/captures").Subrouter()
	captures.HandleFunc("", h.CreateCapture).Methods(http.MethodPost)
	captures.HandleFunc("/{id}", h.GetCapture).Methods(http.MethodGet)
	captures.HandleFunc("/{id}/report", h.GetCaptureReport).Methods(http.MethodGet)

	return r
}
