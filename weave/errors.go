package weave

import (
	"errors"
	"strconv"

	"golang.org/x/xerrors"
)

// Precondition failures (§7 class 2). The public mutators do not return these
// values: they report a failed precondition as a zero AtomID and false.
// Internally, integrate returns ErrCauseNotFound and ErrChildlessCause; the
// other values are not returned by any function in this package.
var (
	ErrCauseNotFound     = errors.New("weave: cause atom not found")
	ErrChildlessCause    = errors.New("weave: cause atom cannot have children")
	ErrAtomNotFound      = errors.New("weave: atom not found")
	ErrNotDeletable      = errors.New("weave: only a none-type atom can be deleted")
	ErrCommitToSelf      = errors.New("weave: cannot commit a site to itself")
	ErrCommitUnknownSite = errors.New("weave: commit target site has no atoms")
)

// Merge errors (§7 class 3, §4.7 case G / contradictory case F): these
// indicate a malformed input weave and are never produced by merging two
// valid weaves. A conforming caller validates an untrusted remote before
// calling Integrate.
var (
	ErrMergeCorrupt = errors.New("weave: merge encountered atoms that are unequal, mutually unaware, and not siblings")
)

// ErrUnparentedAtomHasCause is a merge/integration precondition failure: an
// unparented atom (commit or end) must have a null cause.
var ErrUnparentedAtomHasCause = errors.New("weave: unparented atom has non-null cause")

// ErrWeftDisconnected is returned by ViewAt when the requested weft includes
// an atom while excluding its cause or reference, which would orphan it in
// the resulting view.
var ErrWeftDisconnected = errors.New("weave: weft disconnects an atom from its cause or reference")

// wrapMerge annotates a merge error with the local/remote weave indices where
// it was detected, using golang.org/x/xerrors so that errors.Is/As continue
// to match the sentinel.
func wrapMerge(err error, i, j int) error {
	return xerrors.Errorf("weave: merge failed at local[%d]/remote[%d]: %w", i, j, err)
}

// ValidationErrorKind enumerates every way Validate can fail.
type ValidationErrorKind int

const (
	ErrNoAtoms ValidationErrorKind = iota
	ErrNoSites
	ErrCausalityViolation
	ErrAtomUnawareOfParent
	ErrAtomUnawareOfReference
	ErrChildlessAtomHasChildren
	ErrTreeAtomIsUnparented
	ErrUnparentedAtomIsParented
	ErrIncorrectTreeAtomOrder
	ErrIncorrectUnparentedAtomOrder
	ErrMissingStartOfUnparentedSection
	ErrLikelyCorruption
)

func (k ValidationErrorKind) String() string {
	switch k {
	case ErrNoAtoms:
		return "noAtoms"
	case ErrNoSites:
		return "noSites"
	case ErrCausalityViolation:
		return "causalityViolation"
	case ErrAtomUnawareOfParent:
		return "atomUnawareOfParent"
	case ErrAtomUnawareOfReference:
		return "atomUnawareOfReference"
	case ErrChildlessAtomHasChildren:
		return "childlessAtomHasChildren"
	case ErrTreeAtomIsUnparented:
		return "treeAtomIsUnparented"
	case ErrUnparentedAtomIsParented:
		return "unparentedAtomIsParented"
	case ErrIncorrectTreeAtomOrder:
		return "incorrectTreeAtomOrder"
	case ErrIncorrectUnparentedAtomOrder:
		return "incorrectUnparentedAtomOrder"
	case ErrMissingStartOfUnparentedSection:
		return "missingStartOfUnparentedSection"
	case ErrLikelyCorruption:
		return "likelyCorruption"
	default:
		return "unknown"
	}
}

// ValidationError is returned by (*Weave[V]).Validate.
type ValidationError struct {
	Kind  ValidationErrorKind
	Index int // weave index where the violation was found, or -1
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return "weave: validation failed: " + e.Kind.String() + " at index " + strconv.Itoa(e.Index) + ": " + e.Msg
	}
	return "weave: validation failed: " + e.Kind.String() + ": " + e.Msg
}
