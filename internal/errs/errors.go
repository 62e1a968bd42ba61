package errs

import (
	"errors"
	"fmt"
)

// Kind classifies domain errors so the HTTP boundary can map them to status
// codes without depending on concrete error values.
type Kind uint8

const (
	KindInternal Kind = iota
	KindNotFound
	KindDomainValidation
	KindAlreadyLoaned
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindDomainValidation:
		return "domain_validation"
	case KindAlreadyLoaned:
		return "already_loaned"
	default:
		return "internal"
	}
}

type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Kind() Kind { return e.kind }

func NotFoundf(format string, args ...any) error {
	return &Error{kind: KindNotFound, msg: fmt.Sprintf(format, args...)}
}

func ValidationFailedf(format string, args ...any) error {
	return &Error{kind: KindDomainValidation, msg: fmt.Sprintf(format, args...)}
}

func AlreadyLoanedf(format string, args ...any) error {
	return &Error{kind: KindAlreadyLoaned, msg: fmt.Sprintf(format, args...)}
}

func Internalf(format string, args ...any) error {
	return &Error{kind: KindInternal, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{kind: kind, msg: msg, err: err}
}

// KindOf reports the kind of err; untagged errors are KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindInternal
}

func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsDomainValidation is true for AlreadyLoaned too: the latter is a
// specialization of a validation failure.
func IsDomainValidation(err error) bool {
	k := KindOf(err)
	return k == KindDomainValidation || k == KindAlreadyLoaned
}

func IsAlreadyLoaned(err error) bool { return KindOf(err) == KindAlreadyLoaned }
