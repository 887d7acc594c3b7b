package signers

import (
	"encoding/json"
	"net/http"

	com "github.com/commonsfund/treasury/internal/common"
	"github.com/commonsfund/treasury/pkg/treasury"
	"github.com/commonsfund/treasury/pkg/vault"
	"github.com/ethereum/go-ethereum/common"
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

type assignRoleRequest struct {
	Role string `json:"role"`
}

func (s *Service) AssignRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := treasury.GetAddressFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	// parse target address from url params
	target := chi.URLParam(r, "signer_addr")
	if !common.IsHexAddress(target) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var req assignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	role, err := treasury.RoleFromString(req.Role)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := s.vault.AssignRole(actor, target, role); err != nil {
		com.WriteError(w, err)
		return
	}

	err = com.Body(w, &treasury.Signer{Address: com.ChecksumAddress(target), Role: role}, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Service) RevokeRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := treasury.GetAddressFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	target := chi.URLParam(r, "signer_addr")
	if !common.IsHexAddress(target) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := s.vault.RevokeRole(actor, target); err != nil {
		com.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Service) List(w http.ResponseWriter, r *http.Request) {
	signers, err := s.vault.Signers()
	if err != nil {
		com.WriteError(w, err)
		return
	}

	err = com.BodyMultiple(w, signers, com.Pagination{Limit: len(signers), Offset: 0, Total: len(signers)})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
