package server

import (
	"fmt"
	"net/http"
)

// Store persists sessions.
type Store interface {
	Get(id string) (*Session, error)
}

type Session struct {
	ID    string
	Owner string
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "ok")
}

func (h *Handler) lookup(id string) (*Session, error) {
	return h.store.Get(id)
}
