package transfers

import (
	"net/http"
	"strconv"

	com "github.com/commonsfund/treasury/internal/common"
	"github.com/commonsfund/treasury/internal/services/db"
)

type Service struct {
	db *db.DB
}

func NewService(db *db.DB) *Service {
	return &Service{
		db: db,
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

	trs, err := s.db.TransferDB.Transfers(limit, offset)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	err = com.BodyMultiple(w, trs, com.Pagination{Limit: limit, Offset: offset, Total: offset + len(trs)})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
