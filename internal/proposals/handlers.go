package proposals

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

type proposeRequest struct {
	Recipient string `json:"recipient"`
	Asset     string `json:"asset"`
	Amount    string `json:"amount"`
	Memo      string `json:"memo"`
}

func (s *Service) Propose(w http.ResponseWriter, r *http.Request) {
	actor, ok := treasury.GetAddressFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req proposeRequest
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

	p, err := s.vault.Propose(actor, req.Recipient, req.Asset, amount, req.Memo)
	if err != nil {
		com.WriteError(w, err)
		return
	}

	err = com.Body(w, p, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Service) Approve(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, s.vault.Approve)
}

func (s *Service) Reject(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, s.vault.Reject)
}

func (s *Service) Execute(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, s.vault.Execute)
}

// mutate runs a signer action against a proposal parsed from the url params
func (s *Service) mutate(w http.ResponseWriter, r *http.Request, fn func(string, int64) (*treasury.Proposal, error)) {
	actor, ok := treasury.GetAddressFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "proposal_id"), 10, 64)
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
	id, err := strconv.ParseInt(chi.URLParam(r, "proposal_id"), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	p, err := s.vault.Proposal(id)
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
	// parse pagination params from url query
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		limit = 20
	}

	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil {
		offset = 0
	}

	props, err := s.vault.Proposals(limit, offset)
	if err != nil {
		com.WriteError(w, err)
		return
	}

	err = com.BodyMultiple(w, props, com.Pagination{Limit: limit, Offset: offset, Total: offset + len(props)})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
