// Package session holds the state of one library desk session.
//
// A Session owns exactly one catalog.Loader, one ledger.Ledger and one notification.Display.
// Its lifecycle is New, Start (which loads the catalog in the background) and Close.
// User actions (Borrow, TryBorrow, Return) are applied one at a time in call order and each shows
// a transient notification. Availability is derived on every query and never stored.
package session
