// Package dashboard serves the web UI for configuring and triggering the bot.
package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"bachbot/internal/catalog"
	"bachbot/internal/composer"
	"bachbot/internal/config"
	"bachbot/internal/logfile"
	"bachbot/internal/publisher"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Bot is what the handlers delegate to.
type Bot interface {
	TestConnection(ctx context.Context) (publisher.Identity, error)
	PostNow(ctx context.Context) publisher.Result
	Preview() (composer.Post, error)
}

// Server is the dashboard HTTP server. It keeps no state of its own; every
// request reads the config file afresh.
type Server struct {
	store     *config.Store
	bot       Bot
	logPath   string
	logger    *log.Logger
	router    chi.Router
	templates *template.Template
}

func New(store *config.Store, bot Bot, logPath string, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s := &Server{
		store:     store,
		bot:       bot,
		logPath:   logPath,
		logger:    logger,
		templates: tmpl,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: s.logger, NoColor: true}))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/config", s.handleConfig)
	r.Post("/save_config", s.handleSaveConfig)
	r.Get("/test_connection", s.handleTestConnection)
	r.Get("/post_now", s.handlePostNow)
	r.Get("/preview", s.handlePreview)
	r.Get("/logs", s.handleLogs)
	r.Handle("/metrics", promhttp.Handler())

	s.router = r
}

// Handler returns the router wrapped with a permissive CORS policy.
func (s *Server) Handler() http.Handler {
	return cors.AllowAll().Handler(s.router)
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("Dashboard listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// --- Page Handlers ---

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.Load()
	data := map[string]interface{}{
		"Title":      "Dashboard",
		"ConfigPath": s.store.Path(),
		"Configured": err == nil && cfg.HasCredentials(),
	}
	s.render(w, "index.html", data)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"Title": "Configuration",
		"Saved": r.URL.Query().Get("saved") == "1",
	}
	cfg, err := s.store.Load()
	if err != nil {
		data["Error"] = err.Error()
		cfg = config.Default()
	}
	data["Config"] = cfg
	s.render(w, "config.html", data)
}

func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	cfg, err := s.store.Load()
	if err != nil {
		s.logger.Printf("Overwriting unreadable config: %v", err)
		cfg = config.Default()
	}
	cfg.Mastodon.InstanceURL = strings.TrimSpace(r.PostForm.Get("instance_url"))
	cfg.Mastodon.ClientKey = strings.TrimSpace(r.PostForm.Get("client_key"))
	cfg.Mastodon.ClientSecret = strings.TrimSpace(r.PostForm.Get("client_secret"))
	cfg.Mastodon.AccessToken = strings.TrimSpace(r.PostForm.Get("access_token"))
	if base := strings.TrimSpace(r.PostForm.Get("search_base_url")); base != "" {
		cfg.YouTube.SearchBaseURL = base
	}

	if err := s.store.Save(cfg); err != nil {
		s.logger.Printf("Save config error: %v", err)
		http.Error(w, "Failed to save configuration", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/config?saved=1", http.StatusSeeOther)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"Title":   "Logs",
		"LogPath": s.logPath,
		"Limit":   logfile.DefaultTailLines,
	}
	lines, err := logfile.Tail(s.logPath, logfile.DefaultTailLines)
	if err != nil {
		data["Error"] = err.Error()
	}
	data["Lines"] = lines
	s.render(w, "logs.html", data)
}

// --- API Handlers ---

func (s *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	ident, err := s.bot.TestConnection(r.Context())
	if err != nil {
		writeJSON(w, map[string]interface{}{
			"status":  "error",
			"message": failureMessage(err, "Connection failed. Check your credentials."),
		})
		return
	}
	writeJSON(w, map[string]interface{}{
		"status":  "success",
		"message": "Connection successful!",
		"account": ident,
	})
}

func (s *Server) handlePostNow(w http.ResponseWriter, r *http.Request) {
	res := s.bot.PostNow(r.Context())
	if res.Err != nil || !res.Posted {
		writeJSON(w, map[string]interface{}{
			"status":  "error",
			"message": failureMessage(res.Err, "Failed to post. Check your configuration."),
		})
		return
	}
	writeJSON(w, map[string]interface{}{
		"status":     "success",
		"message":    "Posted successfully!",
		"bwv_number": res.Post.Entry.ID,
		"post_url":   res.Receipt.URL,
		"post_text":  res.Post.Text,
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	post, err := s.bot.Preview()
	if err != nil {
		writeJSON(w, map[string]interface{}{
			"status":  "error",
			"message": "Error: " + err.Error(),
		})
		return
	}
	writeJSON(w, map[string]interface{}{
		"status":     "success",
		"bwv_number": post.Entry.ID,
		"bwv_info": map[string]interface{}{
			"number":   post.Entry.ID,
			"title":    post.Entry.Title,
			"composer": catalog.Composer,
		},
		"youtube_url": post.URL,
		"post_text":   post.Text,
	})
}

// --- Helpers ---

func failureMessage(err error, generic string) string {
	switch publisher.KindOf(err) {
	case publisher.KindCredentials:
		return "Mastodon not configured. Fill in your credentials on the configuration page."
	case publisher.KindConfig:
		return "Error: " + err.Error()
	case publisher.KindConnection:
		return generic + " (" + err.Error() + ")"
	}
	if err != nil {
		return "Error: " + err.Error()
	}
	return generic
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Printf("Template error: %v", err)
		http.Error(w, "Render error", http.StatusInternalServerError)
	}
}
