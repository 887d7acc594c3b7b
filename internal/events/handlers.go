package events

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

// List returns events newest first, or oldest first after the given id when
// the since query param is set
func (s *Service) List(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		limit = 20
	}

	sinceq := r.URL.Query().Get("since")
	if sinceq != "" {
		since, err := strconv.ParseInt(sinceq, 10, 64)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		evs, err := s.db.EventDB.EventsSince(since, limit)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		err = com.BodyMultiple(w, evs, com.Pagination{Limit: limit, Offset: 0, Total: len(evs)})
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil {
		offset = 0
	}

	evs, err := s.db.EventDB.Events(limit, offset)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	err = com.BodyMultiple(w, evs, com.Pagination{Limit: limit, Offset: offset, Total: offset + len(evs)})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
