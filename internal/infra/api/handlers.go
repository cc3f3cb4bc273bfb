package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"purchase-token-gateway/internal/domain"
	"purchase-token-gateway/internal/domain/model"
	"purchase-token-gateway/internal/infra/logging"
	"purchase-token-gateway/internal/usecase"

	"github.com/go-chi/chi/v5"
)

type tokenRequest struct {
	TransactionID string      `json:"transactionID"`
	Price         json.Number `json:"price"`
	Description   string      `json:"description"`
	SuccessURL    string      `json:"successURL"`
	CancelURL     string      `json:"cancelURL"`
	FailureURL    string      `json:"failureURL"`
	WebhookURL    string      `json:"webhookURL"`
}

type verifyRequest struct {
	Token         string      `json:"token"`
	Code          json.Number `json:"code"`
	TransactionID string      `json:"transactionID"`
	Price         json.Number `json:"price"`
}

// handleToken issues a new purchase token for an authenticated merchant.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON payload."})
		return
	}
	if req.TransactionID == "" || req.Price == "" || req.Description == "" ||
		req.SuccessURL == "" || req.CancelURL == "" || req.FailureURL == "" || req.WebhookURL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required fields."})
		return
	}
	price, err := req.Price.Int64()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Price must be a number."})
		return
	}
	if price < model.MinPrice || price > model.MaxPrice {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("Price must be between %d and %d cents.", model.MinPrice, model.MaxPrice),
		})
		return
	}

	r, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	t, err := s.tokenUC.Issue(r.Context(), usecase.IssueInput{
		TransactionID: req.TransactionID,
		Price:         price,
		Description:   req.Description,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
		FailureURL:    req.FailureURL,
		WebhookURL:    req.WebhookURL,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": t.Token})
}

// handleVerify answers a merchant's server-to-server verification with a bare
// boolean: the response never explains why a check failed.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, map[string]bool{"valid": false})
		return
	}
	if req.Token == "" || req.Code == "" || req.TransactionID == "" || req.Price == "" {
		writeJSON(w, http.StatusOK, map[string]bool{"valid": false})
		return
	}

	r, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	code, err := req.Code.Int64()
	price, perr := req.Price.Int64()
	if err != nil || perr != nil {
		writeJSON(w, http.StatusOK, map[string]bool{"valid": false})
		return
	}

	valid, err := s.tokenUC.Verify(r.Context(), usecase.VerifyInput{
		Token:         req.Token,
		Code:          code,
		TransactionID: req.TransactionID,
		Price:         price,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

// handleCheckout opens a processor session for the payer and redirects to the
// hosted payment page.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	checkoutURL, err := s.tokenUC.Checkout(r.Context(), token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, checkoutURL, http.StatusSeeOther)
}

// handleComplete finalizes the purchase after the processor sends the payer
// back. A webhook failure degrades the response but never errors it: the
// payer's experience must not depend on merchant-side reachability.
func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("t")
	if token == "" {
		http.NotFound(w, r)
		return
	}

	res, err := s.tokenUC.Complete(r.Context(), token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res.RedirectURL != "" {
		http.Redirect(w, r, res.RedirectURL, http.StatusSeeOther)
		return
	}
	// Blocked redirect or undelivered webhook: plain confirmation instead.
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Payment completed successfully!"))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("t")
	if token == "" {
		http.NotFound(w, r)
		return
	}

	redirectURL, err := s.tokenUC.Cancel(r.Context(), token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if redirectURL != "" {
		http.Redirect(w, r, redirectURL, http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Payment was cancelled."))
}

// writeError maps internal errors onto the response taxonomy. NotFound,
// expiry and already-purchased merge into one outcome so callers cannot probe
// which case applied.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrUnsafeURL):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "URL must be HTTPS and from an allowed domain.",
		})
	case errors.Is(err, domain.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrAlreadyPurchased),
		errors.Is(err, domain.ErrExpiredToken):
		http.NotFound(w, r)
	default:
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal error."})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
