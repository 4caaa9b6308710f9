package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bid-sniper/internal/model"
	"github.com/sells-group/bid-sniper/internal/pipeline"
	"github.com/sells-group/bid-sniper/internal/pricing"
	"github.com/sells-group/bid-sniper/internal/store"
)

const (
	bidRequestTimeout = 5 * time.Minute
	shutdownTimeout   = 30 * time.Second
	maxBodyBytes      = 1 << 20
)

var servePort int

// bidService is the part of the pipeline the HTTP surface uses.
type bidService interface {
	CreateBid(ctx context.Context, req model.BidRequest) (*model.BidRecord, error)
	GetBid(ctx context.Context, id string) (*model.BidRecord, error)
	Coach(ctx context.Context, id, message string) (string, error)
}

// tokenIssuer signs voice room tokens.
type tokenIssuer interface {
	Token(room, identity string) (string, error)
	URL() string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bid API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx, cfg, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		var issuer tokenIssuer
		if env.Voice != nil {
			issuer = env.Voice
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(env.Pipeline, issuer, cfg.Server.CORSOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// newRouter builds the HTTP API. A nil issuer disables voice tokens.
func newRouter(svc bidService, issuer tokenIssuer, origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	h := &apiHandler{svc: svc, issuer: issuer}
	r.Get("/health", h.health)
	r.Post("/bids", h.createBid)
	r.Get("/bids/{bidID}", h.getBid)
	r.Post("/voice/token", h.voiceToken)
	r.Post("/voice/coach", h.voiceCoach)
	return r
}

type apiHandler struct {
	svc    bidService
	issuer tokenIssuer
}

func (h *apiHandler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *apiHandler) createBid(w http.ResponseWriter, r *http.Request) {
	var req model.BidRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bidRequestTimeout)
	defer cancel()

	bid, err := h.svc.CreateBid(ctx, req)
	if err != nil {
		writeServiceError(w, err, "Bid not found")
		return
	}
	writeJSON(w, http.StatusOK, bid)
}

func (h *apiHandler) getBid(w http.ResponseWriter, r *http.Request) {
	bid, err := h.svc.GetBid(r.Context(), chi.URLParam(r, "bidID"))
	if err != nil {
		writeServiceError(w, err, "Bid not found")
		return
	}
	writeJSON(w, http.StatusOK, bid)
}

func (h *apiHandler) voiceToken(w http.ResponseWriter, r *http.Request) {
	if h.issuer == nil {
		writeError(w, http.StatusServiceUnavailable, "voice is not configured")
		return
	}

	var req struct {
		RoomName string `json:"room_name"`
		Identity string `json:"identity"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.RoomName == "" || req.Identity == "" {
		writeError(w, http.StatusBadRequest, "room_name and identity are required")
		return
	}

	token, err := h.issuer.Token(req.RoomName, req.Identity)
	if err != nil {
		zap.L().Error("voice token failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token, "url": h.issuer.URL()})
}

func (h *apiHandler) voiceCoach(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BidID   string `json:"bid_id"`
		Message string `json:"message"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	reply, err := h.svc.Coach(r.Context(), req.BidID, req.Message)
	if err != nil {
		writeServiceError(w, err, "Bid context not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeServiceError maps pipeline errors to status codes.
func writeServiceError(w http.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, store.ErrBidNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, pricing.ErrInvalidMargin), errors.Is(err, pipeline.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, pricing.ErrNoPricingInputs), errors.Is(err, pricing.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		zap.L().Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
