// Command sample runs a todo API on the dispatch engine.
//
// Run:
//
//	go run ./cmd/sample
//
// Generate the OpenAPI document or the client manifest:
//
//	go run ./cmd/sample -spec                 — print JSON to stdout
//	go run ./cmd/sample -spec -yaml           — print YAML instead
//	go run ./cmd/sample -manifest             — print the operation manifest
//
// Then explore:
//
//	GET    http://localhost:8080/.well-known/openapi.json
//	GET    http://localhost:8080/v1/todos
//	POST   http://localhost:8080/v1/todos
//	GET    http://localhost:8080/v1/todos/{id}
//	PUT    http://localhost:8080/v1/todos/{id}
//	DELETE http://localhost:8080/v1/todos/{id}
//	GET    http://localhost:8080/v1/todos/stats
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"time"

	"github.com/routeline/api"
)

func main() {
	specFlag := flag.Bool("spec", false, "print the OpenAPI document and exit")
	yamlFlag := flag.Bool("yaml", false, "print the document as YAML (requires -spec)")
	manifestFlag := flag.Bool("manifest", false, "print the client operation manifest and exit")
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	r := newRouter()

	if *manifestFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r.Manifest()); err != nil {
			slog.Error("manifest encoding failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if *specFlag {
		var err error
		if *yamlFlag {
			err = r.WriteSpecYAML(os.Stdout)
		} else {
			err = r.WriteSpec(os.Stdout)
		}
		if err != nil {
			slog.Error("spec generation failed", "err", err)
			os.Exit(1)
		}
		return
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	slog.Info("starting server", "addr", *addr, "spec", api.DefaultSpecPath)

	if err := r.ListenAndServe(ctx, *addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "err", err)
	}

	slog.Info("server stopped")
}

// todoSchema describes a todo in responses.
var todoSchema = api.Object(api.Fields{
	"id":    api.Int(),
	"title": api.String(),
	"done":  api.Bool(),
})

// todoStore is an in-memory store passed into handlers explicitly. Handlers
// own their shared state; the dispatcher stays stateless.
type todoStore struct {
	mu     sync.RWMutex
	nextID int64
	todos  map[int64]todo
}

type todo struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

func newRouter() *api.Router {
	r := api.New(
		api.WithTitle("Todos API"),
		api.WithVersion("1.0.0"),
	)

	r.Use(
		api.Recovery(),
		api.RequestID(),
		api.Logger(slog.Default()),
		api.RateLimit(api.RateLimitConfig{Rate: 50, Burst: 100}),
		api.Timeout(10*time.Second),
		api.BodyLimit(1<<20),
	)

	store := &todoStore{nextID: 1, todos: make(map[int64]todo)}

	v1 := r.Group("/v1", api.WithGroupTags("todos"))

	api.Get(v1, "/todos", store.list,
		api.WithSummary("List todos"),
		api.WithParams(api.Object(api.Fields{
			"done":  api.Optional(api.Doc(api.Bool(), "Filter by completion state")),
			"limit": api.Optional(api.Doc(api.Int(), "Maximum number of todos to return")),
		})),
		api.WithOutput(http.StatusOK, api.ArrayOf(todoSchema)),
	)

	api.Post(v1, "/todos", store.create,
		api.WithSummary("Create a todo"),
		api.WithBody(api.Object(api.Fields{
			"title": api.Doc(api.String(), "Todo title"),
			"done":  api.Optional(api.Bool()),
		})),
		api.WithOutput(http.StatusCreated, todoSchema),
	)

	// Registered alongside GET /todos/{id}; the literal segment wins.
	api.Get(v1, "/todos/stats", store.stats,
		api.WithSummary("Todo statistics"),
		api.WithOutput(http.StatusOK, api.Object(api.Fields{
			"total": api.Int(),
			"done":  api.Int(),
		})),
	)

	api.Get(v1, "/todos/{id}", store.get,
		api.WithSummary("Get a todo"),
		api.WithParams(api.Object(api.Fields{"id": api.Int()})),
		api.WithOutput(http.StatusOK, todoSchema),
		api.WithOutput(http.StatusNotFound, nil),
	)

	api.Put(v1, "/todos/{id}", store.update,
		api.WithSummary("Update a todo"),
		api.WithParams(api.Object(api.Fields{"id": api.Int()})),
		api.WithBody(api.Object(api.Fields{
			"title": api.Optional(api.String()),
			"done":  api.Optional(api.Bool()),
		})),
		api.WithOutput(http.StatusOK, todoSchema),
		api.WithOutput(http.StatusNotFound, nil),
	)

	api.Delete(v1, "/todos/{id}", store.remove,
		api.WithSummary("Delete a todo"),
		api.WithParams(api.Object(api.Fields{"id": api.Int()})),
		api.WithOutput(http.StatusNoContent, nil),
		api.WithOutput(http.StatusNotFound, nil),
	)

	return r
}

func (s *todoStore) list(_ context.Context, in *api.Input) (*api.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]todo, 0, len(s.todos))
	for _, t := range s.todos {
		if done, ok := in.Params["done"].(bool); ok && t.Done != done {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if limit, ok := in.Params["limit"].(int64); ok && int64(len(out)) > limit {
		out = out[:limit]
	}

	return api.NewResponse(http.StatusOK, out), nil
}

func (s *todoStore) create(_ context.Context, in *api.Input) (*api.Response, error) {
	body := in.Body.(map[string]any)

	s.mu.Lock()
	defer s.mu.Unlock()

	t := todo{
		ID:    s.nextID,
		Title: body["title"].(string),
	}
	if done, ok := body["done"].(bool); ok {
		t.Done = done
	}
	s.nextID++
	s.todos[t.ID] = t

	return api.NewResponse(http.StatusCreated, t), nil
}

func (s *todoStore) get(_ context.Context, in *api.Input) (*api.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.todos[in.IntParam("id")]
	if !ok {
		return nil, api.Errorf(http.StatusNotFound, "todo %d not found", in.IntParam("id"))
	}
	return api.NewResponse(http.StatusOK, t), nil
}

func (s *todoStore) update(_ context.Context, in *api.Input) (*api.Response, error) {
	body := in.Body.(map[string]any)

	s.mu.Lock()
	defer s.mu.Unlock()

	id := in.IntParam("id")
	t, ok := s.todos[id]
	if !ok {
		return nil, api.Errorf(http.StatusNotFound, "todo %d not found", id)
	}

	if title, ok := body["title"].(string); ok {
		t.Title = title
	}
	if done, ok := body["done"].(bool); ok {
		t.Done = done
	}
	s.todos[id] = t

	return api.NewResponse(http.StatusOK, t), nil
}

func (s *todoStore) remove(_ context.Context, in *api.Input) (*api.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := in.IntParam("id")
	if _, ok := s.todos[id]; !ok {
		return nil, api.Errorf(http.StatusNotFound, "todo %d not found", id)
	}
	delete(s.todos, id)

	return api.NewResponse(http.StatusNoContent, nil), nil
}

func (s *todoStore) stats(_ context.Context, _ *api.Input) (*api.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	done := 0
	for _, t := range s.todos {
		if t.Done {
			done++
		}
	}

	return api.NewResponse(http.StatusOK, map[string]any{
		"total": len(s.todos),
		"done":  done,
	}), nil
}
