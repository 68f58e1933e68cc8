package domain

import (
	"errors"
	"fmt"

	"github.com/lazharichir/holdem/cards"
)

// ErrorKind groups rejections by how the caller should treat them.
type ErrorKind string

const (
	// KindValidation is a bad request from the acting player; state is unchanged.
	KindValidation ErrorKind = "validation"
	// KindPrecondition means the table is not in a state that allows the request.
	KindPrecondition ErrorKind = "precondition"
	// KindResource aborts the current hand attempt.
	KindResource ErrorKind = "resource"
)

var (
	ErrIllegalAction     = errors.New("illegal action")
	ErrOutOfTurn         = errors.New("action out of turn")
	ErrBadPhase          = errors.New("bad phase")
	ErrInsufficientChips = errors.New("insufficient chips")
	ErrInsufficientCards = cards.ErrInsufficientCards

	ErrNotHost        = errors.New("only the host can do that")
	ErrTooFewPlayers  = errors.New("need at least 2 players with chips")
	ErrAlreadyPlaying = errors.New("a hand is already in progress")
	ErrNotAllReady    = errors.New("not every player is ready")
	ErrTableFull      = errors.New("table is full")
	ErrBadPassword    = errors.New("wrong password")
	ErrAlreadySeated  = errors.New("player already at table")
	ErrPlayerNotFound = errors.New("player not found")
	ErrTableNotFound  = errors.New("table not found")
)

// Rejection is the structured error returned to the single requester.
// errors.Is matches it against its Code.
type Rejection struct {
	Kind   ErrorKind
	Code   error
	Reason string
}

func (r *Rejection) Error() string {
	if r.Reason == "" {
		return r.Code.Error()
	}
	return r.Code.Error() + ": " + r.Reason
}

func (r *Rejection) Unwrap() error { return r.Code }

func reject(kind ErrorKind, code error, format string, args ...any) error {
	return &Rejection{Kind: kind, Code: code, Reason: fmt.Sprintf(format, args...)}
}

func invalid(code error, format string, args ...any) error {
	return reject(KindValidation, code, format, args...)
}

func precondition(code error, format string, args ...any) error {
	return reject(KindPrecondition, code, format, args...)
}

// KindOf returns the rejection kind of err, or "" for other errors.
func KindOf(err error) ErrorKind {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Kind
	}
	return ""
}
