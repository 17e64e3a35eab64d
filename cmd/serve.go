package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leadmatch/leadmatch/internal/model"
	"github.com/leadmatch/leadmatch/internal/workflow"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP phase API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initWorkflow()
		if err != nil {
			return err
		}
		defer env.Close()

		api := &apiServer{env: env}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: api.routes(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// apiServer exposes the phase workflow over HTTP. Sessions are addressed by
// the X-Session-ID header; requests without one get a fresh session, and
// every response echoes the id back so clients can stick to it.
type apiServer struct {
	env *workflowEnv
}

func (a *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Session-ID"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", a.handleHealth)
		r.Get("/status", a.handleStatus)
		r.Post("/phase1/lead", a.handleSetLead)
		r.Post("/phase2/search", a.handleSearch)
		r.Post("/phase3/select", a.handleSelect)
		r.Post("/phase4/scrape", a.handleScrape)
		r.Post("/phase5/compare", a.handleCompare)
		r.Post("/reset", a.handleReset)
		r.Get("/export", a.handleExport)
		r.Post("/quick-match", a.handleQuickMatch)
	})

	return r
}

func sessionID(r *http.Request) string {
	if id := r.Header.Get("X-Session-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

type apiResponse struct {
	Status    string      `json:"status"`
	SessionID string      `json:"session_id"`
	Phase     model.Phase `json:"phase,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      any         `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps workflow failures onto HTTP codes: phase precondition
// violations and bad input are the caller's fault, everything else is ours.
func writeError(w http.ResponseWriter, id string, err error) {
	code := http.StatusInternalServerError
	var pre *workflow.PreconditionError
	if errors.As(err, &pre) {
		code = http.StatusBadRequest
	}
	writeJSON(w, code, map[string]string{
		"status":     "error",
		"session_id": id,
		"message":    err.Error(),
	})
}

func (a *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	s := a.env.Controller.Snapshot(id)
	writeJSON(w, http.StatusOK, apiResponse{
		Status:    "success",
		SessionID: id,
		Phase:     s.CurrentPhase,
		Message:   s.CurrentPhase.String(),
		Data: map[string]any{
			"lead_name":      s.LeadName,
			"selected_url":   s.SelectedURL,
			"search_results": s.SearchResults,
			"has_profile":    s.LeadCompany != nil,
			"has_report":     s.ComparisonReport != nil,
		},
	})
}

func (a *apiServer) handleSetLead(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status": "error", "session_id": id, "message": "name is required",
		})
		return
	}

	phase, err := a.env.Controller.SetLead(id, req.Name)
	if err != nil {
		writeError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{
		Status:    "success",
		SessionID: id,
		Phase:     phase,
		Message:   fmt.Sprintf("Lead set to %q. Run the search phase next.", req.Name),
	})
}

func (a *apiServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	results, err := a.env.Controller.Search(r.Context(), id)
	if err != nil {
		writeError(w, id, err)
		return
	}
	msg := fmt.Sprintf("Found %d candidate websites.", len(results))
	if len(results) == 0 {
		msg = "No candidate websites found. You can reset and try a different name."
	}
	writeJSON(w, http.StatusOK, apiResponse{
		Status:    "success",
		SessionID: id,
		Phase:     a.env.Controller.Snapshot(id).CurrentPhase,
		Message:   msg,
		Data:      results,
	})
}

func (a *apiServer) handleSelect(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status": "error", "session_id": id, "message": "url is required",
		})
		return
	}

	phase, err := a.env.Controller.Select(id, req.URL)
	if err != nil {
		writeError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{
		Status:    "success",
		SessionID: id,
		Phase:     phase,
		Message:   "Website selected. Run the scrape phase next.",
	})
}

func (a *apiServer) handleScrape(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	profile, err := a.env.Controller.Scrape(r.Context(), id)
	if err != nil {
		writeError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{
		Status:    "success",
		SessionID: id,
		Phase:     a.env.Controller.Snapshot(id).CurrentPhase,
		Message:   "Lead company profile extracted.",
		Data:      profile,
	})
}

func (a *apiServer) handleCompare(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	var req struct {
		UserCompany model.CompanyProfile `json:"user_company"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserCompany.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status": "error", "session_id": id, "message": "user_company with a name is required",
		})
		return
	}

	rep, err := a.env.Controller.Compare(r.Context(), id, req.UserCompany)
	if err != nil {
		writeError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{
		Status:    "success",
		SessionID: id,
		Phase:     a.env.Controller.Snapshot(id).CurrentPhase,
		Message:   "Comparison complete.",
		Data:      rep,
	})
}

func (a *apiServer) handleReset(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	phase := a.env.Controller.Reset(id)
	writeJSON(w, http.StatusOK, apiResponse{
		Status:    "success",
		SessionID: id,
		Phase:     phase,
		Message:   "Workflow reset. Name a lead company to start over.",
	})
}

// handleExport re-saves the session's finished report and returns the path.
func (a *apiServer) handleExport(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if a.env.Controller.Snapshot(id).ComparisonReport == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"status": "error", "session_id": id, "message": "no report available; complete the comparison phase first",
		})
		return
	}

	path, err := a.env.Controller.Export(id)
	if err != nil {
		writeError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{
		Status:    "success",
		SessionID: id,
		Message:   "Report exported.",
		Data:      map[string]string{"saved_to": path},
	})
}

func (a *apiServer) handleQuickMatch(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	var req struct {
		UserURL string `json:"user_url"`
		LeadURL string `json:"lead_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserURL == "" || req.LeadURL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status": "error", "session_id": id, "message": "user_url and lead_url are required",
		})
		return
	}

	rep, err := a.env.Controller.QuickMatch(r.Context(), req.UserURL, req.LeadURL)
	if err != nil {
		writeError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{
		Status:    "success",
		SessionID: id,
		Message:   "Quick match complete.",
		Data:      rep,
	})
}
