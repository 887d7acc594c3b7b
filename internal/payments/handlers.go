package payments

import (
	"encoding/json"
	"math/big"
	"net/http"
	"strconv"

	com "github.com/commonsfund/treasury/internal/common"
	"github.com/commonsfund/treasury/pkg/treasury"
	"github.com/commonsfund/treasury/pkg/vault"
	"github.com/go-chi/chi/v5"
)

type Service struct {
	vault *vault.Vault
}

func NewService(v *vault.Vault) *Service {
	return &Service{
		vault: v,
	}
}

type scheduleRequest struct {
	Recipient string `json:"recipient"`
	Asset     string `json:"asset"`
	Amount    string `json:"amount"`
	Memo      string `json:"memo"`
	Interval  int64  `json:"interval"`
}

func (s *Service) Schedule(w http.ResponseWriter, r *http.Request) {
	actor, ok := treasury.GetAddressFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	amount, ok := big.NewInt(0).SetString(req.Amount, 10)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	p, err := s.vault.SchedulePayment(actor, req.Recipient, req.Asset, amount, req.Memo, req.Interval)
	if err != nil {
		com.WriteError(w, err)
		return
	}

	err = com.Body(w, p, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Service) Pause(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, s.vault.PausePayment)
}

func (s *Service) Resume(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, s.vault.ResumePayment)
}

func (s *Service) Cancel(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, s.vault.CancelPayment)
}

func (s *Service) Execute(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, s.vault.ExecutePayment)
}

// mutate runs a signer action against a payment parsed from the url params
func (s *Service) mutate(w http.ResponseWriter, r *http.Request, fn func(string, int64) (*treasury.RecurringPayment, error)) {
	actor, ok := treasury.GetAddressFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "payment_id"), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	p, err := fn(actor, id)
	if err != nil {
		com.WriteError(w, err)
		return
	}

	err = com.Body(w, p, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Service) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "payment_id"), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	p, err := s.vault.Payment(id)
	if err != nil {
		com.WriteError(w, err)
		return
	}

	err = com.Body(w, p, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Service) List(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		limit = 20
	}

	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil {
		offset = 0
	}

	pays, err := s.vault.Payments(limit, offset)
	if err != nil {
		com.WriteError(w, err)
		return
	}

	err = com.BodyMultiple(w, pays, com.Pagination{Limit: limit, Offset: offset, Total: offset + len(pays)})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Service) History(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "payment_id"), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		limit = 20
	}

	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil {
		offset = 0
	}

	entries, err := s.vault.PaymentHistory(id, limit, offset)
	if err != nil {
		com.WriteError(w, err)
		return
	}

	err = com.BodyMultiple(w, entries, com.Pagination{Limit: limit, Offset: offset, Total: offset + len(entries)})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
