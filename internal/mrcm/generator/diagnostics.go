package generator

import (
	"cmp"
	"log/slog"
	"slices"
)

// DiagnosticKind classifies a non-fatal generation problem.
type DiagnosticKind string

const (
	KindMalformedConstraint   DiagnosticKind = "malformed_constraint"
	KindUnsupportedConstraint DiagnosticKind = "unsupported_constraint"
	KindNoRange               DiagnosticKind = "no_range"
	KindNoMatchingRange       DiagnosticKind = "no_matching_range"
	KindMissingDomain         DiagnosticKind = "missing_domain"
	KindInvalidMember         DiagnosticKind = "invalid_member"
)

// Level is the log level a diagnostic of this kind is reported at. Constraints in
// valid but unmodelled syntax are kept verbatim and only worth an info line.
func (k DiagnosticKind) Level() slog.Level {
	if k == KindUnsupportedConstraint {
		return slog.LevelInfo
	}
	return slog.LevelWarn
}

// Diagnostic reports an input the generators tolerated and skipped or left as-is.
type Diagnostic struct {
	Kind      DiagnosticKind `json:"kind"`
	MemberID  string         `json:"member_id,omitempty"`
	ConceptID string         `json:"concept_id,omitempty"`
	Message   string         `json:"message"`
}

func sortDiagnostics(diagnostics []Diagnostic) {
	slices.SortFunc(diagnostics, func(a, b Diagnostic) int {
		return cmp.Or(
			cmp.Compare(a.Kind, b.Kind),
			cmp.Compare(a.ConceptID, b.ConceptID),
			cmp.Compare(a.MemberID, b.MemberID),
			cmp.Compare(a.Message, b.Message),
		)
	})
}
