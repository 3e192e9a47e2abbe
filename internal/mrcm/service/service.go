// Package service keeps attribute rules and domain templates in step with the MRCM.
//
// The service runs as a commit listener: when a content commit touches an MRCM
// reference set it regenerates the derived text for the whole branch and writes the
// differences into the same commit. Operators can also rebuild a branch in its own
// commit or preview the pending changes without writing.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/generator"
	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/metrics"
	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/models"
	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/ports"
	"github.com/WestCoastInformatics/snowstorm-1/internal/platform/tracing"
	vmodels "github.com/WestCoastInformatics/snowstorm-1/internal/versioning/models"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/audit"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/sentinel"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/requestcontext"
)

const (
	// MetadataDisableAutoUpdate is the branch metadata key that turns off regeneration
	// on content commits when set to "true".
	MetadataDisableAutoUpdate = "disableMrcmAutoUpdate"

	// FullRebuildLockMessage is shown on a branch while a full rebuild holds its commit.
	FullRebuildLockMessage = "Updating all MRCM components."
)

const (
	triggerCommit  = "commit"
	triggerRebuild = "rebuild"
	triggerPreview = "preview"

	actorCommitHook = "commit-hook"
)

// ModelLoader reads the MRCM and display terms for a branch view.
type ModelLoader interface {
	LoadActiveModel(ctx context.Context, view vmodels.View) (*models.MRCM, []generator.Diagnostic, error)
	FindConceptTerms(ctx context.Context, view vmodels.View, domainIDs, attributeIDs []string) (models.ConceptTerms, error)
}

// Result describes one regeneration run.
type Result struct {
	Branch      string                 `json:"branch"`
	Changes     models.ChangeSet       `json:"changes"`
	Diagnostics []generator.Diagnostic `json:"diagnostics"`
	// Patched and Saved count members written in place and as new versions.
	Patched int `json:"patched"`
	Saved   int `json:"saved"`
}

type Service struct {
	branches ports.Branches
	loader   ModelLoader
	members  ports.MemberStore
	audit    ports.AuditStore
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithAuditStore records an audit event for every run that changes content.
func WithAuditStore(store ports.AuditStore) Option {
	return func(s *Service) {
		s.audit = store
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func New(branches ports.Branches, loader ModelLoader, members ports.MemberStore, opts ...Option) (*Service, error) {
	if branches == nil {
		return nil, errors.New("branches are required")
	}
	if loader == nil {
		return nil, errors.New("model loader is required")
	}
	if members == nil {
		return nil, errors.New("member store is required")
	}
	s := &Service{
		branches: branches,
		loader:   loader,
		members:  members,
		logger:   slog.Default(),
		tracer:   tracing.Tracer("mrcm.service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// PreCommitCompletion regenerates rules and templates when a content commit changed an
// MRCM member. Any error aborts the commit.
func (s *Service) PreCommitCompletion(ctx context.Context, commit *vmodels.Commit) (err error) {
	path := commit.Branch.Path
	if commit.Type != vmodels.CommitTypeContent || commit.LockMessage == FullRebuildLockMessage {
		return nil
	}
	if commit.Branch.MetadataValue(MetadataDisableAutoUpdate) == "true" {
		s.logger.DebugContext(ctx, "MRCM auto update disabled", "branch", path)
		s.metrics.IncrementRun(triggerCommit, "skipped")
		return nil
	}

	ctx, span := tracing.Start(ctx, s.tracer, "mrcm.PreCommitCompletion",
		attribute.String("branch", path),
		attribute.String("commit_id", commit.ID.String()),
	)
	defer func() { tracing.End(span, err) }()

	changed, err := s.members.FindChangedMemberIDs(ctx, commit.View(), models.RefsetIDs)
	if err != nil {
		return fmt.Errorf("find changed MRCM members on %s: %w", path, err)
	}
	if len(changed) == 0 {
		return nil
	}
	s.logger.InfoContext(ctx, "MRCM members changed, regenerating",
		"branch", path,
		"commit_id", commit.ID,
		"changed_members", len(changed),
	)

	if requestcontext.Actor(ctx) == "" {
		ctx = requestcontext.WithActor(ctx, actorCommitHook)
	}
	_, err = s.run(ctx, triggerCommit, commit)
	return err
}

// UpdateAll regenerates every rule and template on the branch in a commit of its own.
func (s *Service) UpdateAll(ctx context.Context, path string) (*Result, error) {
	var result *Result
	err := s.branches.WithCommit(ctx, path, vmodels.CommitTypeContent, FullRebuildLockMessage,
		func(ctx context.Context, commit *vmodels.Commit) error {
			var err error
			result, err = s.run(ctx, triggerRebuild, commit)
			return err
		})
	if err != nil {
		s.recordFailure(ctx, path, err)
		return nil, fmt.Errorf("update all MRCM components on %s: %w", path, err)
	}
	return result, nil
}

// Preview regenerates against the branch head and returns the changes without writing.
func (s *Service) Preview(ctx context.Context, path string) (result *Result, err error) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, s.tracer, "mrcm.Preview", attribute.String("branch", path))
	defer func() { tracing.End(span, err) }()

	view, err := s.branches.HeadView(ctx, path)
	if err != nil {
		s.metrics.IncrementRun(triggerPreview, "error")
		return nil, err
	}
	changes, diagnostics, err := s.regenerate(ctx, view)
	if err != nil {
		s.metrics.IncrementRun(triggerPreview, "error")
		return nil, fmt.Errorf("preview MRCM on %s: %w", path, err)
	}
	s.metrics.IncrementRun(triggerPreview, outcome(changes))
	s.metrics.ObserveRunDuration(triggerPreview, time.Since(start))
	return &Result{Branch: path, Changes: *changes, Diagnostics: diagnostics}, nil
}

// SetAutoUpdate enables or disables regeneration on content commits for a branch.
func (s *Service) SetAutoUpdate(ctx context.Context, path string, enabled bool) (*vmodels.Branch, error) {
	value := ""
	if !enabled {
		value = "true"
	}
	branch, err := s.branches.SetMetadata(ctx, path, MetadataDisableAutoUpdate, value)
	if err != nil {
		return nil, err
	}
	s.appendAudit(ctx, audit.Event{
		Action: string(audit.EventMRCMAutoUpdateToggled),
		Branch: path,
		Reason: fmt.Sprintf("auto update enabled=%t", enabled),
	})
	s.logger.InfoContext(ctx, "MRCM auto update toggled", "branch", path, "enabled", enabled)
	return branch, nil
}

// run regenerates within an open commit and persists the differences.
func (s *Service) run(ctx context.Context, trigger string, commit *vmodels.Commit) (*Result, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveRunDuration(trigger, time.Since(start)) }()

	changes, diagnostics, err := s.regenerate(ctx, commit.View())
	if err != nil {
		s.metrics.IncrementRun(trigger, "error")
		return nil, err
	}
	result := &Result{Branch: commit.Branch.Path, Changes: *changes, Diagnostics: diagnostics}
	if changes.Empty() {
		s.metrics.IncrementRun(trigger, "unchanged")
		return result, nil
	}

	result.Patched, result.Saved, err = s.persist(ctx, commit, changes)
	if err != nil {
		s.metrics.IncrementRun(trigger, "error")
		return nil, err
	}
	s.metrics.IncrementRun(trigger, "changed")

	action := audit.EventMRCMRegenerated
	if trigger == triggerRebuild {
		action = audit.EventMRCMRebuilt
	}
	s.appendAudit(ctx, audit.Event{
		Action:   string(action),
		Branch:   commit.Branch.Path,
		CommitID: commit.ID.String(),
		Changes:  changes.Size(),
	})
	s.logger.InfoContext(ctx, "MRCM components updated",
		"branch", commit.Branch.Path,
		"commit_id", commit.ID,
		"trigger", trigger,
		"attribute_rules", len(changes.AttributeRules),
		"domain_templates", len(changes.DomainTemplates),
		"patched", result.Patched,
		"saved", result.Saved,
	)
	return result, nil
}

// regenerate loads the model visible in view and runs both generators over one snapshot.
func (s *Service) regenerate(ctx context.Context, view vmodels.View) (_ *models.ChangeSet, _ []generator.Diagnostic, err error) {
	ctx, span := tracing.Start(ctx, s.tracer, "mrcm.regenerate", attribute.String("branch", view.Path))
	defer func() { tracing.End(span, err) }()

	mrcm, diagnostics, err := s.loader.LoadActiveModel(ctx, view)
	if err != nil {
		return nil, nil, err
	}
	terms, err := s.loader.FindConceptTerms(ctx, view, mrcm.DomainConceptIDs(), mrcm.AttributeConceptIDs())
	if err != nil {
		return nil, nil, err
	}
	snap, snapDiagnostics := generator.NewSnapshot(mrcm, terms)
	diagnostics = append(diagnostics, snapDiagnostics...)

	var (
		changes             models.ChangeSet
		ruleDiagnostics     []generator.Diagnostic
		templateDiagnostics []generator.Diagnostic
	)
	var g errgroup.Group
	g.Go(func() error {
		changes.AttributeRules, ruleDiagnostics = generator.GenerateAttributeRules(snap)
		return nil
	})
	g.Go(func() error {
		var err error
		changes.DomainTemplates, templateDiagnostics, err = generator.GenerateDomainTemplates(snap)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("generate domain templates on %s: %w", view.Path, err)
	}
	diagnostics = append(diagnostics, ruleDiagnostics...)
	diagnostics = append(diagnostics, templateDiagnostics...)

	for _, d := range diagnostics {
		s.metrics.IncrementDiagnostic(string(d.Kind))
		s.logger.Log(ctx, d.Kind.Level(), "MRCM diagnostic",
			"branch", view.Path,
			"kind", d.Kind,
			"member_id", d.MemberID,
			"concept_id", d.ConceptID,
			"message", d.Message,
		)
	}
	span.SetAttributes(
		attribute.Int("attribute_rules", len(changes.AttributeRules)),
		attribute.Int("domain_templates", len(changes.DomainTemplates)),
		attribute.Int("diagnostics", len(diagnostics)),
	)
	return &changes, diagnostics, nil
}

// persist writes the change set into the open commit. Members that already have a
// version at the commit timepoint are patched in place; the rest get a new version.
func (s *Service) persist(ctx context.Context, commit *vmodels.Commit, changes *models.ChangeSet) (patched, saved int, err error) {
	ctx, span := tracing.Start(ctx, s.tracer, "mrcm.persist", attribute.String("branch", commit.Branch.Path))
	defer func() { tracing.End(span, err) }()

	view := commit.View()
	ranges, err := s.findExactly(ctx, view, "attribute range", ruleMemberIDs(changes.AttributeRules))
	if err != nil {
		return 0, 0, err
	}
	domains, err := s.findExactly(ctx, view, "domain", templateMemberIDs(changes.DomainTemplates))
	if err != nil {
		return 0, 0, err
	}

	updated := make([]*models.Member, 0, changes.Size())
	for _, change := range changes.AttributeRules {
		m := ranges[change.MemberID]
		m.SetField(models.FieldAttributeRule, change.AttributeRule)
		m.SetField(models.FieldRangeConstraint, change.RangeConstraint)
		updated = append(updated, m)
	}
	for _, change := range changes.DomainTemplates {
		m := domains[change.MemberID]
		m.SetField(models.FieldDomainTemplateForPrecoordination, change.Precoordination)
		m.SetField(models.FieldDomainTemplateForPostcoordination, change.Postcoordination)
		updated = append(updated, m)
	}

	var inPlace, fresh []*models.Member
	for _, m := range updated {
		m.UpdateEffectiveTime()
		if m.Start.Equal(commit.Timepoint) {
			inPlace = append(inPlace, m)
		} else {
			fresh = append(fresh, m)
		}
	}
	if len(inPlace) > 0 {
		if err := s.members.PatchFieldsInPlace(ctx, inPlace); err != nil {
			return 0, 0, fmt.Errorf("patch MRCM members: %w", err)
		}
	}
	if len(fresh) > 0 {
		if err := s.members.SaveBatch(ctx, commit, fresh); err != nil {
			return 0, 0, fmt.Errorf("save MRCM members: %w", err)
		}
	}

	s.countChanges("patch", inPlace)
	s.countChanges("new_version", fresh)
	return len(inPlace), len(fresh), nil
}

// findExactly loads the members with the given ids and fails when any is missing.
func (s *Service) findExactly(ctx context.Context, view vmodels.View, kind string, ids []string) (map[string]*models.Member, error) {
	byID := make(map[string]*models.Member, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}
	found, err := s.members.FindMembers(ctx, view, ids)
	if err != nil {
		return nil, fmt.Errorf("find %s members: %w", kind, err)
	}
	for _, m := range found {
		byID[m.MemberID] = m
	}
	if len(found) != len(ids) || len(byID) != len(ids) {
		return nil, fmt.Errorf("requested %d %s members on %s, found %d: %w",
			len(ids), kind, view.Path, len(found), sentinel.ErrIntegrity)
	}
	return byID, nil
}

func (s *Service) appendAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	event.ActorID = requestcontext.Actor(ctx)
	if err := s.audit.Append(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to append MRCM audit event",
			"action", event.Action,
			"branch", event.Branch,
			"error", err,
		)
	}
}

// recordFailure audits a rebuild that did not commit. It runs outside the aborted
// commit so the event survives the rollback.
func (s *Service) recordFailure(ctx context.Context, path string, err error) {
	s.logger.ErrorContext(ctx, "MRCM full rebuild failed", "branch", path, "error", err)
	s.appendAudit(ctx, audit.Event{
		Action: string(audit.EventMRCMRegenerationFail),
		Branch: path,
		Reason: err.Error(),
	})
}

func (s *Service) countChanges(mode string, members []*models.Member) {
	var rules, templates int
	for _, m := range members {
		if m.RefsetID == models.AttributeRangeRefsetID {
			rules++
		} else {
			templates++
		}
	}
	s.metrics.AddChanges("attribute_rule", mode, rules)
	s.metrics.AddChanges("domain_template", mode, templates)
}

func ruleMemberIDs(changes []models.AttributeRuleChange) []string {
	ids := make([]string, len(changes))
	for i, c := range changes {
		ids[i] = c.MemberID
	}
	return ids
}

func templateMemberIDs(changes []models.DomainTemplateChange) []string {
	ids := make([]string, len(changes))
	for i, c := range changes {
		ids[i] = c.MemberID
	}
	return ids
}

func outcome(changes *models.ChangeSet) string {
	if changes.Empty() {
		return "unchanged"
	}
	return "changed"
}
