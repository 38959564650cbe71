package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/startupbase/fundmatch/internal/catalog"
	"github.com/startupbase/fundmatch/internal/engine"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP matching API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		groups, err := sectorGroups()
		if err != nil {
			return err
		}

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		deps := serverDeps{
			store:      store,
			groups:     groups,
			defaultTop: cfg.Engine.TopResults,
			bodyLimit:  int64(cfg.Server.RequestBodyKB) * 1024,
			limiter:    rate.NewLimiter(rate.Limit(cfg.Server.RateLimitRPS), cfg.Server.RateLimitBurst),
			origins:    cfg.Server.AllowedOrigins,
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: buildRouter(deps),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(),
				time.Duration(cfg.Server.ShutdownSecs)*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
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

type serverDeps struct {
	store      catalog.Store
	groups     engine.SectorGroups
	defaultTop int
	bodyLimit  int64
	limiter    *rate.Limiter
	origins    []string
}

func buildRouter(d serverDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(rateLimit(d.limiter))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/match/{domain}", matchHandler(d))

	return r
}

func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter != nil && !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// matchRequest is the wire form of a profile. RequiredFunding is loosely
// typed: clients send numbers or formatted strings and both are accepted.
type matchRequest struct {
	Industry           string   `json:"industry"`
	Stage              string   `json:"stage"`
	RequiredFunding    any      `json:"required_funding"`
	RegisteredState    string   `json:"registered_state"`
	PrefersGrant       bool     `json:"prefers_grant"`
	PreferredBankTypes []string `json:"preferred_bank_types"`
	SpecialCriteria    []string `json:"special_criteria"`
	ServicesNeeded     []string `json:"services_needed"`
}

type matchResponse struct {
	Domain  string               `json:"domain"`
	Results []engine.MatchResult `json:"results"`
}

func matchHandler(d serverDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		domain, err := catalog.ParseDomain(chi.URLParam(r, "domain"))
		if err != nil {
			writeError(w, http.StatusNotFound, "unknown match domain")
			return
		}

		body := http.MaxBytesReader(w, r.Body, d.bodyLimit)
		var req matchRequest
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		profile := &engine.Profile{
			Industry:           req.Industry,
			Stage:              req.Stage,
			RequiredFunding:    engine.CoerceFunding(req.RequiredFunding),
			RegisteredState:    req.RegisteredState,
			PrefersGrant:       req.PrefersGrant,
			PreferredBankTypes: req.PreferredBankTypes,
			SpecialCriteria:    req.SpecialCriteria,
			ServicesNeeded:     req.ServicesNeeded,
		}

		top := d.defaultTop
		if v := r.URL.Query().Get("top"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "top must be a non-negative integer")
				return
			}
			top = n
		}

		cat, err := d.store.LoadCatalog(r.Context(), domain)
		if err != nil {
			zap.L().Error("catalog load failed",
				zap.String("domain", string(domain)),
				zap.Error(err),
			)
			writeError(w, http.StatusInternalServerError, "catalog unavailable")
			return
		}

		var results []engine.MatchResult
		switch domain {
		case catalog.DomainSchemes:
			results, err = engine.MatchSchemes(d.groups, profile, cat.Entities, cat.Records)
		case catalog.DomainBanks:
			results, err = engine.MatchBanks(d.groups, profile, cat.Entities, cat.Records)
		}
		if err != nil {
			if eris.Is(err, engine.ErrEmptyProfile) {
				writeError(w, http.StatusBadRequest, "profile is empty")
				return
			}
			zap.L().Error("matching failed",
				zap.String("domain", string(domain)),
				zap.Error(err),
			)
			writeError(w, http.StatusInternalServerError, "matching failed")
			return
		}

		if top > 0 && len(results) > top {
			results = results[:top]
		}
		if results == nil {
			results = []engine.MatchResult{}
		}

		writeJSON(w, http.StatusOK, matchResponse{
			Domain:  string(domain),
			Results: results,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
