package topicseed

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// SuggestionRequest is the body of POST /api/suggestions.
type SuggestionRequest struct {
	TopicName   string             `json:"topic_name"`
	Sentences   []LabelledSentence `json:"sentences"`
	OnImbalance string             `json:"on_imbalance,omitempty"`
	Shuffle     bool               `json:"shuffle,omitempty"`
	Seed        uint64             `json:"seed,omitempty"`
}

type server struct {
	store     DocumentStore
	maximiser *Maximiser
}

// NewServer creates the HTTP API. The maximiser runs without a generator, so
// only the clustering suggestion is produced.
func NewServer(store DocumentStore, clusterer *Clusterer) http.Handler {
	s := &server{
		store:     store,
		maximiser: &Maximiser{Clusterer: clusterer},
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/suggestions", s.suggest).Methods("POST")
	api.HandleFunc("/topics/{id}/sentences", s.topicSentences).Methods("GET")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")
	return r
}

// suggest handles POST /api/suggestions
func (s *server) suggest(w http.ResponseWriter, r *http.Request) {
	var req SuggestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	policy, err := ParseImbalancePolicy(req.OnImbalance)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.maximiser.Maximise(r.Context(), MaximiseRequest{
		Topic:       TopicContext{Name: req.TopicName, LabelledSentences: req.Sentences},
		Shuffle:     req.Shuffle,
		Seed:        req.Seed,
		OnImbalance: policy,
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// topicSentences handles GET /api/topics/{id}/sentences
func (s *server) topicSentences(w http.ResponseWriter, r *http.Request) {
	topicID := mux.Vars(r)["id"]
	topic, err := LoadTopic(r.Context(), s.store, topicID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	sentences := topic.LabelledSentences
	if sentences == nil {
		sentences = []LabelledSentence{}
	}
	writeJSON(w, http.StatusOK, sentences)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrMalformedSentence):
		return http.StatusBadRequest
	case errors.Is(err, ErrLabelImbalance), errors.Is(err, ErrDegenerateClustering):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrDependencyUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
