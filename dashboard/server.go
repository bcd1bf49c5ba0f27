package dashboard

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"
	"github.com/rs/cors"

	"gr-rentals/config"
	"gr-rentals/models"
	"gr-rentals/services"
	"gr-rentals/storage"
	"gr-rentals/utils"
)

const listingsCacheKey = "listings"

// Server renders the listings dashboard over a read-only view of the store.
type Server struct {
	cfg       *config.Config
	store     storage.ListingReader
	insights  *services.InsightService
	logger    *utils.Logger
	cache     *cache.Cache
	templates *template.Template

	sessionKey []byte
	now        func() time.Time
}

func NewServer(cfg *config.Config, store storage.ListingReader, logger *utils.Logger) (*Server, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("dashboard: parse templates: %w", err)
	}
	key, err := sessionKey(cfg.SessionSecret, cfg.AppPassword)
	if err != nil {
		return nil, err
	}
	ttl := cfg.CacheTTL()
	return &Server{
		cfg:        cfg,
		store:      store,
		insights:   services.NewInsightService(logger),
		logger:     logger,
		cache:      cache.New(ttl, 2*ttl),
		templates:  tmpl,
		sessionKey: key,
		now:        time.Now,
	}, nil
}

// Routes builds the full handler chain.
func (s *Server) Routes() http.Handler {
	router := mux.NewRouter()
	router.Use(s.logRequests, securityHeaders)

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/login", s.handleLoginForm).Methods(http.MethodGet)
	router.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)

	private := router.NewRoute().Subrouter()
	private.Use(s.requireAuth)
	private.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	private.HandleFunc("/listings.csv", s.handleCSV).Methods(http.MethodGet)
	private.HandleFunc("/api/listings", s.handleAPI).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	})
	return c.Handler(router)
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[dashboard] Listening on %s", s.cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("[dashboard] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// loadListings returns the full table, served from cache for CacheTTL.
func (s *Server) loadListings(ctx context.Context) ([]*models.Listing, error) {
	if cached, ok := s.cache.Get(listingsCacheKey); ok {
		return cached.([]*models.Listing), nil
	}
	listings, err := s.store.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(listingsCacheKey, listings, cache.DefaultExpiration)
	s.logger.Debug("[dashboard] Loaded %d listings into cache", len(listings))
	return listings, nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("[dashboard] %s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
