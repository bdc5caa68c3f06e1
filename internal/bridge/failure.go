package bridge

import (
	"errors"
	"fmt"

	"goldrates-engine/internal/scrapeerr"
)

type Reason string

const (
	ReasonStart       Reason = "start_failed"
	ReasonTimeout     Reason = "timeout"
	ReasonCanceled    Reason = "canceled"
	ReasonExitCode    Reason = "exit_code"
	ReasonEmptyOutput Reason = "empty_output"
	ReasonBadOutput   Reason = "bad_output"
	ReasonEmptyResult Reason = "empty_result"
)

// Failure is a renderer run that produced no usable data. Structured is the
// last envelope seen on stderr; Earlier keeps any that preceded it, oldest
// first.
type Failure struct {
	Reason     Reason
	ExitCode   int
	Structured *scrapeerr.Error
	Earlier    []*scrapeerr.Error
	Err        error
}

func (f *Failure) Error() string {
	msg := string(f.Reason)
	if f.Reason == ReasonExitCode {
		msg = fmt.Sprintf("%s %d", msg, f.ExitCode)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	if f.Structured != nil {
		msg += " (" + f.Structured.Error() + ")"
	}
	return "renderer " + msg
}

func (f *Failure) Unwrap() []error {
	var errs []error
	if f.Structured != nil {
		errs = append(errs, f.Structured)
	}
	if f.Err != nil {
		errs = append(errs, f.Err)
	}
	return errs
}

// Type classifies the failure for operators. Without a structured envelope
// it is unknown.
func (f *Failure) Type() scrapeerr.Type {
	if f.Structured != nil {
		return f.Structured.Type
	}
	return scrapeerr.Unknown
}

// TypeOf classifies any error returned by Run.
func TypeOf(err error) scrapeerr.Type {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Type()
	}
	var se *scrapeerr.Error
	if errors.As(err, &se) {
		return se.Type
	}
	return scrapeerr.Unknown
}
