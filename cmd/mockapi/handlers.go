package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

type propertyInput struct {
	Address       string    `json:"address"`
	City          string    `json:"city"`
	Region        string    `json:"region"`
	PurchasePrice int64     `json:"purchase_price"`
	PurchaseDate  time.Time `json:"purchase_date"`
	Notes         string    `json:"notes"`
}

func (s *server) handleListProperties(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := make([]property, 0, len(s.properties))
	for _, p := range s.properties {
		list = append(list, p)
	}
	s.mu.Unlock()

	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p, ok := s.properties[chi.URLParam(r, "id")]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "property not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handleCreateProperty(w http.ResponseWriter, r *http.Request) {
	input, err := decodeInput(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if input.Address == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]string{{"field": "address", "msg": "required"}},
		})
		return
	}

	p := property{
		ID:            "p-" + uuid.NewString()[:8],
		Address:       input.Address,
		City:          input.City,
		Region:        input.Region,
		PurchasePrice: input.PurchasePrice,
		PurchaseDate:  input.PurchaseDate,
		CurrentValue:  input.PurchasePrice,
		Notes:         input.Notes,
	}

	s.mu.Lock()
	s.properties[p.ID] = p
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, p)
}

func (s *server) handleUpdateProperty(w http.ResponseWriter, r *http.Request) {
	input, err := decodeInput(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	p, ok := s.properties[id]
	if ok {
		p.Address = input.Address
		p.City = input.City
		p.Region = input.Region
		p.PurchasePrice = input.PurchasePrice
		p.PurchaseDate = input.PurchaseDate
		p.Notes = input.Notes
		s.properties[id] = p
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "property not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handleDeleteProperty(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	_, ok := s.properties[id]
	delete(s.properties, id)
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "property not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeInput(r *http.Request) (propertyInput, error) {
	var input propertyInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		return input, fmt.Errorf("invalid request body: %w", err)
	}
	return input, nil
}
