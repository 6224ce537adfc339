// FilePath: internal/server/admin.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	nuts "github.com/vaudience/go-nuts"

	"github.com/skyfield/archivehub/internal/config"
	"github.com/skyfield/archivehub/internal/monitoring"
	"github.com/skyfield/archivehub/internal/storage"
)

// AdminServer exposes a small HTTP surface next to the TCP port: health for
// probes, the folder list and counters for operators.
type AdminServer struct {
	config  config.AdminConfig
	engine  *storage.Engine
	metrics *monitoring.Service
	srv     *http.Server
}

// NewAdminServer creates the admin endpoint.
func NewAdminServer(cfg config.AdminConfig, engine *storage.Engine, metrics *monitoring.Service) *AdminServer {
	a := &AdminServer{config: cfg, engine: engine, metrics: metrics}

	router := mux.NewRouter()
	v1 := router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/health", a.handleHealth()).Methods(http.MethodGet)
	v1.HandleFunc("/folders", a.handleFolders()).Methods(http.MethodGet)
	v1.HandleFunc("/stats", a.handleStats()).Methods(http.MethodGet)

	a.srv = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: handlers.CombinedLoggingHandler(os.Stdout, handlers.RecoveryHandler()(router)),
	}
	return a
}

// Start begins serving. It blocks, so callers run it in its own goroutine.
// A disabled admin server is a no-op.
func (a *AdminServer) Start() {
	if !a.config.Enabled {
		nuts.L.Infof("[Admin] disabled")
		return
	}
	nuts.L.Infof("[Admin] listening on %s", a.srv.Addr)
	if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		nuts.L.Errorf("[Admin] serving failed: %v", err)
	}
}

// Shutdown stops the admin endpoint gracefully.
func (a *AdminServer) Shutdown(ctx context.Context) error {
	if !a.config.Enabled {
		return nil
	}
	return a.srv.Shutdown(ctx)
}

func (a *AdminServer) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","version":"` + nuts.GetVersion() + `"}`))
	}
}

func (a *AdminServer) handleFolders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		folders, err := a.engine.FolderList()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(folders)
	}
}

func (a *AdminServer) handleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(a.metrics.Snapshot())
	}
}
