package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"purchase-token-gateway/internal/config"
	"purchase-token-gateway/internal/infra/logging"
	"purchase-token-gateway/internal/infra/metrics"
	red "purchase-token-gateway/internal/infra/redis"
	"purchase-token-gateway/internal/infra/security"
	"purchase-token-gateway/internal/usecase"
)

// Buckets for the rate limiter. Authentication shares one bucket across
// endpoints so a brute-forcer cannot multiply its budget by switching routes.
const (
	bucketAuth   = "api_auth"
	bucketToken  = "api_token"
	bucketVerify = "api_verify"
)

// Server wires the merchant API and the payer-facing purchase routes.
type Server struct {
	tokenUC  usecase.TokenUseCase
	verifier *security.CredentialVerifier
	limiter  *red.RateLimiter
	rl       config.RateLimitConfig
	log      *zerolog.Logger
}

func NewServer(
	tokenUC usecase.TokenUseCase,
	verifier *security.CredentialVerifier,
	limiter *red.RateLimiter,
	rl config.RateLimitConfig,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		tokenUC:  tokenUC,
		verifier: verifier,
		limiter:  limiter,
		rl:       rl,
		log:      logger,
	}
}

// Router builds the chi mux with the full middleware chain.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(Recover(s.log))
	r.Use(TraceID(s.log))
	r.Use(RequestLog(s.log))
	r.Use(Timeout(30 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.With(RateLimit(s.limiter, bucketToken, s.rl.TokenLimit, s.rl.TokenWindow)).
			Post("/token", s.handleToken)
		r.With(RateLimit(s.limiter, bucketVerify, s.rl.AuthLimit, s.rl.AuthWindow)).
			Post("/verify", s.handleVerify)
	})

	r.Post("/purchase/checkout/{token}", s.handleCheckout)
	r.Get("/purchase/complete", s.handleComplete)
	r.Get("/purchase/cancel", s.handleCancel)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// authenticate checks the X-Client-ID/X-Client-Secret headers behind the
// shared auth rate bucket. It writes the rejection itself and reports whether
// the request may proceed. Rejections are uniform: a missing header, an
// unknown merchant and a wrong secret are indistinguishable to the caller.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	if !s.limiter.Allow(r.Context(), bucketAuth, clientIP(r), s.rl.AuthLimit, s.rl.AuthWindow) {
		metrics.IncRateLimitDenied(bucketAuth)
		writeJSON(w, http.StatusTooManyRequests, map[string]string{
			"error": "Rate limit exceeded. Try again later.",
		})
		return r, false
	}

	clientID := r.Header.Get("X-Client-ID")
	clientSecret := r.Header.Get("X-Client-Secret")
	if clientID == "" || clientSecret == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Access denied."})
		return r, false
	}

	merchant, ok := s.verifier.Verify(r.Context(), clientID, clientSecret)
	if !ok {
		l := logging.With(r.Context(), s.log)
		l.Warn().
			Str("client_id", clientID).
			Str("ip", clientIP(r)).
			Msg("Failed merchant authentication attempt")
		metrics.IncAuthFailure()
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Access denied."})
		return r, false
	}

	return r.WithContext(logging.WithMerchantID(r.Context(), merchant.ID)), true
}
