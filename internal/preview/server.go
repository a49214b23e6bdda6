// Package preview serves a local page that renders an agent's chat widget
// with its saved color, font and welcome message.
package preview

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/saple-ai/saple-cli/internal/api"
	"go.uber.org/zap"
	g "maragu.dev/gomponents"
)

// Loader fetches agents. *api.Client implements it.
type Loader interface {
	ListBots(ctx context.Context) ([]api.Bot, error)
	GetBot(ctx context.Context, id string) (*api.Bot, error)
}

// Server renders agent previews.
type Server struct {
	loader    Loader
	serverURL string
	log       *zap.Logger
}

// New returns a preview server. serverURL is the backend the embed snippet
// points at.
func New(loader Loader, serverURL string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{loader: loader, serverURL: serverURL, log: log}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.index)
	r.Get("/agents/{id}", s.agent)
	r.Get("/health", health)

	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully. ready is called with the base URL once the listener is up.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(baseURL string)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	if ready != nil {
		ready("http://" + ln.Addr().String())
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	bots, err := s.loader.ListBots(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	render(w, http.StatusOK, IndexPage(bots))
}

func (s *Server) agent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	bot, err := s.loader.GetBot(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	render(w, http.StatusOK, AgentPage(*bot, EmbedSnippet(s.serverURL, bot.ID)))
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	if api.IsNotFound(err) {
		render(w, http.StatusNotFound, ErrorPage("Agent not found", "The agent does not exist or belongs to another workspace."))
		return
	}
	s.log.Warn("preview lookup failed", zap.Error(err))
	render(w, http.StatusBadGateway, ErrorPage("Preview unavailable", "Could not reach the Saple API. Please try again."))
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("preview request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func render(w http.ResponseWriter, status int, page g.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = page.Render(w)
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
