package server

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-desk/catalog"
	"github.com/AntonStoeckl/library-desk/ledger"
	"github.com/AntonStoeckl/library-desk/session"
)

const contentTypeJSON = "application/json"

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, toStatusResponse(s.desk.Status()))
}

func (s *Server) handleBooks(w http.ResponseWriter, _ *http.Request) {
	views := s.desk.Books()

	books := make([]bookResponse, 0, len(views))
	for _, view := range views {
		books = append(books, toBookResponse(view))
	}

	s.writeJSON(w, http.StatusOK, books)
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	view, found := s.desk.Book(bookIDFrom(r))
	if !found {
		s.writeError(w, http.StatusNotFound, session.ErrBookNotFound)
		return
	}

	s.writeJSON(w, http.StatusOK, toBookResponse(view))
}

func (s *Server) handleBorrow(w http.ResponseWriter, r *http.Request) {
	record, err := s.desk.TryBorrow(r.Context(), bookIDFrom(r))

	switch {
	case errors.Is(err, session.ErrBookNotFound):
		s.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, session.ErrBookNotAvailable):
		s.writeError(w, http.StatusConflict, err)
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err)
	default:
		s.writeJSON(w, http.StatusCreated, toLoanResponse(record))
	}
}

func (s *Server) handleLoans(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, toLoanResponses(s.desk.Loans()))
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	result := s.desk.Return(r.Context(), bookIDFrom(r))

	returned := 0
	if event, ok := result.Event.(ledger.BookReturned); ok {
		returned = event.RemovedLoans
	}

	s.writeJSON(w, http.StatusOK, returnResponse{
		Returned: returned,
		Loans:    toLoanResponses(s.desk.Loans()),
	})
}

func (s *Server) handleNotification(w http.ResponseWriter, _ *http.Request) {
	current, showing := s.desk.Notification()
	if !showing {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.writeJSON(w, http.StatusOK, toNotificationResponse(current))
}

func bookIDFrom(r *http.Request) catalog.BookID {
	return catalog.BookID(r.PathValue("id"))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)

	if err := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w).Encode(body); err != nil && s.logger != nil {
		s.logger.Error(logMsgEncodingFailed, logAttrError, err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
