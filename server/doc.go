// Package server exposes a desk session over HTTP as a JSON API for a browser front-end.
//
//	GET  /api/books                 catalog with effective availability
//	GET  /api/books/{id}            one book
//	POST /api/books/{id}/borrow     borrow an available book
//	GET  /api/loans                 borrowed books
//	POST /api/loans/{id}/return     return all loans of a book
//	GET  /api/notification          current notification, 204 if none
//	GET  /api/notifications/ws      websocket stream of notification changes
//	GET  /api/status                loading flag and counters
//	GET  /healthz                   liveness
package server
