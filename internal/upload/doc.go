// Package upload runs asset uploads in the background and exposes each one as
// a Future that resolves once the backend has stored the file.
//
// Callers block on Future.Wait or select on Future.Done instead of polling a
// progress value. Cancelling the context passed to Start, or calling
// Future.Cancel, aborts the transfer and resolves the future with the
// context error.
package upload
