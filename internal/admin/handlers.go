package admin

import (
	"encoding/json"
	"math/big"
	"net/http"

	com "github.com/commonsfund/treasury/internal/common"
	"github.com/commonsfund/treasury/pkg/treasury"
	"github.com/commonsfund/treasury/pkg/vault"
)

type Service struct {
	vault *vault.Vault
}

func NewService(v *vault.Vault) *Service {
	return &Service{
		vault: v,
	}
}

type configRequest struct {
	Threshold         int    `json:"threshold"`
	TimelockThreshold string `json:"timelock_threshold"`
	TimelockDelay     int64  `json:"timelock_delay"`
	DailyLimit        string `json:"daily_limit"`
	WeeklyLimit       string `json:"weekly_limit"`
}

func (req *configRequest) parse() (*treasury.Config, error) {
	cfg := &treasury.Config{
		Threshold:     req.Threshold,
		TimelockDelay: req.TimelockDelay,
	}

	var err error
	if cfg.TimelockThreshold, err = parseAmount(req.TimelockThreshold); err != nil {
		return nil, err
	}
	if cfg.DailyLimit, err = parseAmount(req.DailyLimit); err != nil {
		return nil, err
	}
	if cfg.WeeklyLimit, err = parseAmount(req.WeeklyLimit); err != nil {
		return nil, err
	}

	return cfg, nil
}

// parseAmount parses a base 10 amount, an empty string means unset
func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}

	v, ok := big.NewInt(0).SetString(s, 10)
	if !ok {
		return nil, treasury.ErrInvalidOperation
	}

	return v, nil
}

// Initialize seeds the treasury config and grants the signer the admin role, once
func (s *Service) Initialize(w http.ResponseWriter, r *http.Request) {
	actor, ok := treasury.GetAddressFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req configRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	cfg, err := req.parse()
	if err != nil {
		com.WriteError(w, err)
		return
	}

	if err := s.vault.Initialize(actor, cfg); err != nil {
		com.WriteError(w, err)
		return
	}

	err = com.Body(w, cfg, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Service) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	actor, ok := treasury.GetAddressFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req configRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	cfg, err := req.parse()
	if err != nil {
		com.WriteError(w, err)
		return
	}

	if err := s.vault.UpdateConfig(actor, cfg); err != nil {
		com.WriteError(w, err)
		return
	}

	err = com.Body(w, cfg, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Service) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.vault.Config()
	if err != nil {
		com.WriteError(w, err)
		return
	}

	err = com.Body(w, cfg, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
