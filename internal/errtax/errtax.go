// Package errtax is the closed error taxonomy for the ledger core.
//
// Every failure surfaced by internal/store, internal/command,
// internal/traversal, internal/commit, and internal/resolver is an *Error
// with a stable Kind/Code pair. Lower layers never recover from a failure;
// the command façade (internal/facade) is the single place that logs a
// Kind/Code and re-surfaces it to the caller.
package errtax

import (
	"errors"
	"fmt"
)

// Kind is a closed taxonomy of error categories.
type Kind int

const (
	Unknown Kind = iota
	InvalidInput
	InvalidTitle
	InvalidOrdinal
	NotFound
	Deleted
	ConstraintViolation
	IllegalReparent
	CycleDetected
	MultipleParents
	DuplicateMapping
	MissingMapping
	AmbiguousSelection
	TraversalBroken
	DeletedNodeInTraversal
	AmbiguousLeafSelection
	DeterminismViolation
	CannotDelete
	StrandsChild
	NotALeaf
	RootEttleInvalid
	RootEttleAmbiguous
	Concurrency
	Persistence
	IO
	Serialization
	PolicyDenied
	ApprovalRoutingUnavailable
	Internal
)

var codes = map[Kind]string{
	Unknown:                    "unknown",
	InvalidInput:               "invalid_input",
	InvalidTitle:               "invalid_title",
	InvalidOrdinal:             "invalid_ordinal",
	NotFound:                   "not_found",
	Deleted:                    "deleted",
	ConstraintViolation:        "constraint_violation",
	IllegalReparent:            "illegal_reparent",
	CycleDetected:              "cycle_detected",
	MultipleParents:            "multiple_parents",
	DuplicateMapping:           "duplicate_mapping",
	MissingMapping:             "missing_mapping",
	AmbiguousSelection:         "ambiguous_selection",
	TraversalBroken:            "traversal_broken",
	DeletedNodeInTraversal:     "deleted_node_in_traversal",
	AmbiguousLeafSelection:     "ambiguous_leaf_selection",
	DeterminismViolation:       "determinism_violation",
	CannotDelete:               "cannot_delete",
	StrandsChild:               "strands_child",
	NotALeaf:                   "not_a_leaf",
	RootEttleInvalid:           "root_ettle_invalid",
	RootEttleAmbiguous:         "root_ettle_ambiguous",
	Concurrency:                "concurrency",
	Persistence:                "persistence",
	IO:                         "io",
	Serialization:              "serialization",
	PolicyDenied:               "policy_denied",
	ApprovalRoutingUnavailable: "approval_routing_unavailable",
	Internal:                   "internal",
}

// Code returns the stable string code for a Kind.
func (k Kind) Code() string {
	if c, ok := codes[k]; ok {
		return c
	}
	return "unknown"
}

func (k Kind) String() string { return k.Code() }

// Error is the single error type the core produces. All fields beyond Kind
// and Message are optional context attachments.
type Error struct {
	Kind       Kind
	Message    string
	Op         string
	EntityID   string
	EpID       string
	Ordinal    *int
	Candidates []string
	RequestID  string
	cause      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind.Code(), e.Message)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.cause != nil {
		msg = msg + ": " + e.cause.Error()
	}
	return msg
}

// Unwrap exposes the wrapped cause so errors.Is/As keep working.
func (e *Error) Unwrap() error { return e.cause }

// New builds an *Error of the given Kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Kind to an underlying cause, preserving it for errors.Is.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// WithOp attaches an operation name and returns the receiver (fluent).
func (e *Error) WithOp(op string) *Error { e.Op = op; return e }

// WithEntity attaches an entity id.
func (e *Error) WithEntity(id string) *Error { e.EntityID = id; return e }

// WithEp attaches an EP id.
func (e *Error) WithEp(id string) *Error { e.EpID = id; return e }

// WithOrdinal attaches an ordinal.
func (e *Error) WithOrdinal(ord int) *Error { e.Ordinal = &ord; return e }

// WithCandidates attaches a candidate id list (e.g. for RootEttleAmbiguous).
func (e *Error) WithCandidates(ids []string) *Error {
	e.Candidates = append([]string(nil), ids...)
	return e
}

// WithRequestID attaches a request id for correlation.
func (e *Error) WithRequestID(id string) *Error { e.RequestID = id; return e }

// KindOf extracts the Kind from any error in the chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err (or something it wraps) has the given Kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
