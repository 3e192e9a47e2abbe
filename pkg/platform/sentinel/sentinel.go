package sentinel

import "errors"

// Sentinel errors for infrastructure and model facts. Stores, the versioning layer and the
// generators return these (wrapped with context) so callers can branch with errors.Is.
//
// - ErrNotFound: document, branch or commit does not exist
// - ErrConflict: branch already locked by an open commit, or a second version of a
//   document at the same commit timepoint
// - ErrInvalidState: authoritative model is inconsistent (unresolvable or cyclic parent domain)
// - ErrIntegrity: store and model disagree (requested vs found member counts)
// - ErrUnavailable: backing service temporarily unavailable
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrIntegrity    = errors.New("integrity violation")
	ErrUnavailable  = errors.New("unavailable")
)
