package screenshare

import (
	"context"
	"errors"
	"strings"
)

// OutcomeKind enumerates the semantic kinds of acquisition failure.
type OutcomeKind int

const (
	OutcomeCancelled OutcomeKind = iota
	OutcomeDenied
	OutcomeAborted
	OutcomeNotFound
	OutcomeNotReadable
	OutcomeOther
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeDenied:
		return "denied"
	case OutcomeAborted:
		return "aborted"
	case OutcomeNotFound:
		return "not-found"
	case OutcomeNotReadable:
		return "not-readable"
	default:
		return "other"
	}
}

// Status returns the session state an outcome of this kind leads to.
func (k OutcomeKind) Status() Status {
	switch k {
	case OutcomeCancelled, OutcomeAborted:
		return StatusUserCancelled
	case OutcomeDenied:
		return StatusPermissionDenied
	default:
		return StatusUnexpectedError
	}
}

const fallbackErrorMessage = "An unexpected error occurred while screen sharing."

// DefaultMessage is the user-facing message for the kind.
func (k OutcomeKind) DefaultMessage() string {
	switch k {
	case OutcomeCancelled:
		return "You cancelled the screen selection."
	case OutcomeDenied:
		return "Screen sharing permission was denied."
	case OutcomeAborted:
		return "Screen selection was aborted."
	case OutcomeNotFound:
		return "No screen sharing source was found."
	case OutcomeNotReadable:
		return "Could not read the selected screen. It may be restricted by the OS."
	default:
		return fallbackErrorMessage
	}
}

// Outcome is a classified acquisition failure. Message is the user-facing
// text: the default message for the kind, or for OutcomeOther the platform
// message verbatim when one was given.
type Outcome struct {
	Kind    OutcomeKind
	Message string
}

// Status returns the session state the outcome leads to.
func (o Outcome) Status() Status { return o.Kind.Status() }

// Classify maps a platform failure category and message to an Outcome.
// Rules are evaluated in order and the first match wins.
func Classify(category, message string) Outcome {
	kind := classifyKind(category, message)
	if kind == OutcomeOther && message != "" {
		return Outcome{Kind: kind, Message: message}
	}
	return Outcome{Kind: kind, Message: kind.DefaultMessage()}
}

func classifyKind(category, message string) OutcomeKind {
	switch {
	case category == CategoryPermissionRefused && isCancellation(message):
		return OutcomeCancelled
	case category == CategoryPermissionRefused, category == CategorySecurityRestricted:
		return OutcomeDenied
	case category == CategoryAborted:
		return OutcomeAborted
	case category == CategorySourceNotFound:
		return OutcomeNotFound
	case category == CategorySourceNotReadable:
		return OutcomeNotReadable
	default:
		return OutcomeOther
	}
}

// isCancellation reports whether a permission refusal was the user backing
// out of the picker rather than a policy denial. Some platforms report a
// dismissed picker with the bare message "Permission denied".
func isCancellation(message string) bool {
	if message == "Permission denied" {
		return true
	}
	lower := strings.ToLower(message)
	return strings.Contains(lower, "cancel") || strings.Contains(lower, "abort")
}

// ClassifyError absorbs an error returned by a Provider.
func ClassifyError(err error) Outcome {
	if err == nil {
		return Classify("", "")
	}
	var f *Failure
	if errors.As(err, &f) {
		return Classify(f.Category, f.Message)
	}
	if errors.Is(err, context.Canceled) {
		return Classify(CategoryAborted, err.Error())
	}
	return Classify("", err.Error())
}
