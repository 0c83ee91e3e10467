package server

import (
	"time"

	"github.com/AntonStoeckl/library-desk/ledger"
	"github.com/AntonStoeckl/library-desk/notification"
	"github.com/AntonStoeckl/library-desk/session"
)

type bookResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Available bool   `json:"available"`
	Borrowed  bool   `json:"borrowed"`
}

type loanResponse struct {
	LoanID     string    `json:"loanId"`
	BookID     string    `json:"id"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	BorrowedAt time.Time `json:"borrowedAt"`
}

type returnResponse struct {
	Returned int            `json:"returned"`
	Loans    []loanResponse `json:"loans"`
}

type notificationResponse struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Kind      string    `json:"type"`
	ShownAt   time.Time `json:"shownAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type changeResponse struct {
	Event        string               `json:"event"`
	Notification notificationResponse `json:"notification"`
	At           time.Time            `json:"at"`
}

type statusResponse struct {
	SessionID    string `json:"sessionId"`
	Loading      bool   `json:"loading"`
	Loaded       bool   `json:"loaded"`
	Books        int    `json:"books"`
	Loans        int    `json:"loans"`
	Notification string `json:"notification"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toBookResponse(view session.BookView) bookResponse {
	return bookResponse{
		ID:        view.ID.String(),
		Title:     view.Title,
		Author:    view.Author,
		Available: view.Available,
		Borrowed:  view.Borrowed,
	}
}

func toLoanResponse(record ledger.BorrowRecord) loanResponse {
	return loanResponse{
		LoanID:     record.LoanID.String(),
		BookID:     record.BookID.String(),
		Title:      record.Title,
		Author:     record.Author,
		BorrowedAt: record.BorrowedAt,
	}
}

func toLoanResponses(records []ledger.BorrowRecord) []loanResponse {
	loans := make([]loanResponse, 0, len(records))
	for _, record := range records {
		loans = append(loans, toLoanResponse(record))
	}

	return loans
}

func toNotificationResponse(n notification.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID.String(),
		Text:      n.Text,
		Kind:      string(n.Kind),
		ShownAt:   n.ShownAt,
		ExpiresAt: n.ExpiresAt,
	}
}

func toChangeResponse(change notification.Change) changeResponse {
	return changeResponse{
		Event:        string(change.Type),
		Notification: toNotificationResponse(change.Notification),
		At:           change.At,
	}
}

func toStatusResponse(status session.Status) statusResponse {
	return statusResponse{
		SessionID:    status.SessionID.String(),
		Loading:      status.Loading,
		Loaded:       status.Loaded,
		Books:        status.Books,
		Loans:        status.Loans,
		Notification: status.Notification.String(),
	}
}
