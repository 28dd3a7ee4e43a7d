package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/ritzau/dataflows/pkg/graph"
	"github.com/ritzau/dataflows/pkg/logging"
	"github.com/ritzau/dataflows/pkg/model"
	"github.com/ritzau/dataflows/pkg/pubsub"
	"github.com/ritzau/dataflows/pkg/scene"
	"github.com/ritzau/dataflows/pkg/store"
	"github.com/ritzau/dataflows/pkg/watcher"
)

// maxPayload caps scene uploads
const maxPayload = 4 << 20

// keepAlive is the interval between SSE comments on an idle feed
var keepAlive = 15 * time.Second

// Server exposes a scene store over HTTP
type Server struct {
	router     *mux.Router
	store      store.SceneStore
	publisher  *pubsub.SSEPublisher
	metrics    *Metrics
	httpServer *http.Server
}

// NewServer creates a server backed by st
func NewServer(st store.SceneStore) *Server {
	publisher := pubsub.NewSSEPublisher()

	// scenes: a new subscriber gets the last event so it knows the feed is
	// live; the rest of the buffer serves reconnects with Last-Event-ID
	publisher.ConfigureTopic(pubsub.TopicScenes, pubsub.TopicConfig{
		BufferSize: 64,
		ReplayAll:  false,
	})

	s := &Server{
		router:    mux.NewRouter(),
		store:     st,
		publisher: publisher,
	}
	s.metrics = NewMetrics(func() float64 {
		return float64(publisher.Subscribers(pubsub.TopicScenes))
	})
	s.setupRoutes()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Publisher returns the change feed
func (s *Server) Publisher() *pubsub.SSEPublisher {
	return s.publisher
}

// Metrics returns the server's collectors
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler returns the full handler chain
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

func (s *Server) setupRoutes() {
	s.router.Use(s.metrics.Middleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")

	// SSE subscription endpoint
	s.router.HandleFunc("/api/subscribe/scenes", s.handleSubscribeScenes).Methods("GET")

	s.router.HandleFunc("/scenes/", s.handleListScenes).Methods("GET")
	s.router.HandleFunc("/scenes/", s.handleCreateScene).Methods("POST")
	s.router.HandleFunc("/scenes/{id:[0-9]+}", s.handleGetScene).Methods("GET")
	s.router.HandleFunc("/scenes/{id:[0-9]+}", s.handleUpdateScene).Methods("PUT")
	s.router.HandleFunc("/scenes/{id:[0-9]+}", s.handleDeleteScene).Methods("DELETE")
	s.router.HandleFunc("/scenes/{id:[0-9]+}/summary", s.handleSummary).Methods("GET")
	s.router.HandleFunc("/scenes/{id:[0-9]+}/path", s.handlePath).Methods("GET")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSubscribeScenes(w http.ResponseWriter, r *http.Request) {
	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*") // CORS support

	lastSeen, _ := strconv.Atoi(r.Header.Get("Last-Event-ID"))
	sub, err := s.publisher.SubscribeAfter(r.Context(), pubsub.TopicScenes, lastSeen)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	flusher, _ := w.(http.Flusher)
	flush := func() {
		if flusher != nil {
			flusher.Flush()
		}
	}

	// Send initial comment to establish connection (Safari compatibility)
	pubsub.WriteComment(w, "connected")
	flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := pubsub.WriteComment(w, "keep-alive"); err != nil {
				return
			}
			flush()
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := pubsub.WriteSSE(w, event); err != nil {
				logging.WarnContext(r.Context(), "error writing SSE event", "error", err)
				return
			}
			flush()
		}
	}
}

func (s *Server) handleListScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := s.store.FetchAll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scenes)
}

func (s *Server) handleGetScene(w http.ResponseWriter, r *http.Request) {
	sc, err := s.fetch(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) handleCreateScene(w http.ResponseWriter, r *http.Request) {
	sc, g, err := s.readScene(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := s.store.Save(r.Context(), sc, true)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sc.ID = id

	logging.InfoContext(r.Context(), "scene created", "sceneID", id, "name", sc.Name)
	s.publish(pubsub.SceneCreated, g, id)

	w.Header().Set("Location", fmt.Sprintf("/scenes/%d", id))
	writeJSON(w, http.StatusCreated, sc)
}

func (s *Server) handleUpdateScene(w http.ResponseWriter, r *http.Request) {
	id, err := sceneID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sc, g, err := s.readScene(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sc.ID = id

	if _, err := s.store.Save(r.Context(), sc, false); err != nil {
		s.writeError(w, r, err)
		return
	}

	logging.InfoContext(r.Context(), "scene updated", "sceneID", id, "name", sc.Name)
	s.publish(pubsub.SceneUpdated, g, id)
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) handleDeleteScene(w http.ResponseWriter, r *http.Request) {
	id, err := sceneID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	logging.InfoContext(r.Context(), "scene deleted", "sceneID", id)
	s.publishEvent(pubsub.SceneDeleted, pubsub.SceneEvent{ID: id})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	g, err := s.load(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g.Summarize())
}

func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	from, errFrom := strconv.Atoi(r.URL.Query().Get("from"))
	to, errTo := strconv.Atoi(r.URL.Query().Get("to"))
	if errFrom != nil || errTo != nil {
		http.Error(w, "from and to must be device ids", http.StatusBadRequest)
		return
	}

	g, err := s.load(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	route, err := g.Route(from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, route)
}

// fetch loads the scene named by the {id} route variable
func (s *Server) fetch(r *http.Request) (*scene.Scene, error) {
	id, err := sceneID(r)
	if err != nil {
		return nil, err
	}
	return s.store.Fetch(r.Context(), id)
}

// load fetches a scene and replays it into a graph
func (s *Server) load(r *http.Request) (*graph.FlowGraph, error) {
	sc, err := s.fetch(r)
	if err != nil {
		return nil, err
	}
	return replay(sc)
}

// readScene decodes a request body and validates it by replaying it
func (s *Server) readScene(w http.ResponseWriter, r *http.Request) (*scene.Scene, *graph.FlowGraph, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayload))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.metrics.Rejected.WithLabelValues("size").Inc()
		return nil, nil, fmt.Errorf("scene payload over %d bytes: %w", tooLarge.Limit, err)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", model.ErrInvalidScene, err)
	}
	sc, err := scene.Deserialize(body)
	if err != nil {
		s.metrics.Rejected.WithLabelValues("decode").Inc()
		return nil, nil, err
	}
	g, err := replay(sc)
	if err != nil {
		s.metrics.Rejected.WithLabelValues("replay").Inc()
		return nil, nil, err
	}
	return sc, g, nil
}

// replay builds a graph from a scene and checks it is consistent
func replay(sc *scene.Scene) (*graph.FlowGraph, error) {
	g, err := scene.Load(sc, graph.NewAnchor(model.Position{}))
	if err != nil {
		return nil, err
	}
	if err := g.CheckInvariants(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidScene, err)
	}
	return g, nil
}

func (s *Server) publish(eventType string, g *graph.FlowGraph, id int) {
	devices, cords := g.Len()
	s.publishEvent(eventType, pubsub.SceneEvent{ID: id, Name: g.Name, Devices: devices, Cords: cords})
}

func (s *Server) publishEvent(eventType string, event pubsub.SceneEvent) {
	s.metrics.Scenes.WithLabelValues(eventType).Inc()
	if err := s.publisher.Publish(pubsub.TopicScenes, eventType, event); err != nil {
		logging.Warn("failed to publish scene event", "type", eventType, "sceneID", event.ID, "error", err)
	}
}

// Follow publishes change events for scene files edited outside the API.
// It returns when events is closed or ctx is done.
func (s *Server) Follow(ctx context.Context, events <-chan watcher.ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			s.applyChanges(ctx, watcher.AnalyzeChanges(event))
		}
	}
}

func (s *Server) applyChanges(ctx context.Context, analysis *watcher.ChangeAnalysis) {
	if analysis.Empty() {
		return
	}
	logging.Debug("scene files changed", "changed", analysis.Changed, "removed", analysis.Removed)

	for _, id := range analysis.Changed {
		sc, err := s.store.Fetch(ctx, id)
		if err != nil {
			logging.Warn("changed scene file is unreadable", "sceneID", id, "error", err)
			continue
		}
		g, err := replay(sc)
		if err != nil {
			s.metrics.Rejected.WithLabelValues("file").Inc()
			logging.Warn("changed scene file is invalid", "sceneID", id, "error", err)
			continue
		}
		s.publish(pubsub.SceneChanged, g, id)
	}
	for _, id := range analysis.Removed {
		s.publishEvent(pubsub.SceneDeleted, pubsub.SceneEvent{ID: id})
	}
}

func sceneID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return 0, fmt.Errorf("scene id %q: %w", mux.Vars(r)["id"], model.ErrSceneNotFound)
	}
	return id, nil
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, model.ErrSceneNotFound), errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidScene),
		errors.Is(err, model.ErrUnrecognizedType),
		errors.Is(err, model.ErrSelfLink):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logging.ErrorContext(r.Context(), "scene store failure", "error", err)
	}
	http.Error(w, err.Error(), code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to encode response", "error", err)
	}
}

// Start serves on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.httpServer.Addr = addr

	logging.Info("starting scene server", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown closes the change feed and stops the HTTP server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("stopping scene server")
	s.publisher.Close()
	return s.httpServer.Shutdown(ctx)
}
