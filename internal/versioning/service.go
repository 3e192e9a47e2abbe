// Package versioning manages branches and commits of the versioned document store.
//
// At most one commit is open per branch. Stores write through the commit: when a
// database is configured each commit runs in one SQL transaction carried in context,
// otherwise in-memory stores register as RollbackHandlers and discard the commit's
// versions on abort. Commit listeners run before completion and can abort the commit.
package versioning

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/WestCoastInformatics/snowstorm-1/internal/versioning/models"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/sentinel"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/tx"
)

// BranchStore persists branches.
type BranchStore interface {
	Create(ctx context.Context, branch *models.Branch) error
	FindByPath(ctx context.Context, path string) (*models.Branch, error)
	Update(ctx context.Context, branch *models.Branch) error
	List(ctx context.Context) ([]*models.Branch, error)
}

// CommitListener is called before a commit completes. Returning an error aborts the commit.
type CommitListener interface {
	PreCommitCompletion(ctx context.Context, commit *models.Commit) error
}

// RollbackHandler discards what a store wrote through an aborted commit.
type RollbackHandler interface {
	RollbackCommit(ctx context.Context, commit *models.Commit) error
}

type openCommit struct {
	commit *models.Commit
	sqlTx  *sql.Tx
}

type Service struct {
	branches BranchStore
	db       *sql.DB
	logger   *slog.Logger
	clock    func() time.Time

	mu        sync.Mutex
	open      map[string]*openCommit
	listeners []CommitListener
	rollbacks []RollbackHandler
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithDB runs every commit inside a transaction on db.
func WithDB(db *sql.DB) Option {
	return func(s *Service) {
		s.db = db
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

func New(branches BranchStore, opts ...Option) (*Service, error) {
	if branches == nil {
		return nil, errors.New("branch store is required")
	}
	svc := &Service{
		branches: branches,
		logger:   slog.Default(),
		clock:    time.Now,
		open:     make(map[string]*openCommit),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// RegisterListener adds a commit listener. Listeners run in registration order.
func (s *Service) RegisterListener(listener CommitListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// RegisterRollbackHandler adds a handler run when a commit is aborted.
func (s *Service) RegisterRollbackHandler(handler RollbackHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollbacks = append(s.rollbacks, handler)
}

// CreateBranch creates an empty branch.
func (s *Service) CreateBranch(ctx context.Context, path string) (*models.Branch, error) {
	if path == "" {
		return nil, errors.New("branch path is required")
	}
	now := s.now()
	branch := &models.Branch{
		Path:      path,
		Metadata:  map[string]string{},
		Head:      now,
		CreatedAt: now,
	}
	if err := s.branches.Create(ctx, branch); err != nil {
		return nil, fmt.Errorf("create branch: %w", err)
	}
	s.logger.InfoContext(ctx, "branch created", "branch", path)
	return branch, nil
}

// Branch returns a branch with its lock state.
func (s *Service) Branch(ctx context.Context, path string) (*models.Branch, error) {
	branch, err := s.branches.FindByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	_, branch.Locked = s.open[path]
	s.mu.Unlock()
	return branch, nil
}

// Branches lists all branches.
func (s *Service) Branches(ctx context.Context) ([]*models.Branch, error) {
	branches, err := s.branches.List(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, branch := range branches {
		_, branch.Locked = s.open[branch.Path]
	}
	return branches, nil
}

// SetMetadata sets one branch metadata value. An empty value removes the key.
func (s *Service) SetMetadata(ctx context.Context, path, key, value string) (*models.Branch, error) {
	branch, err := s.branches.FindByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	if branch.Metadata == nil {
		branch.Metadata = map[string]string{}
	}
	if value == "" {
		delete(branch.Metadata, key)
	} else {
		branch.Metadata[key] = value
	}
	if err := s.branches.Update(ctx, branch); err != nil {
		return nil, fmt.Errorf("update branch metadata: %w", err)
	}
	return branch, nil
}

// HeadView returns the branch as of its last completed commit.
func (s *Service) HeadView(ctx context.Context, path string) (models.View, error) {
	branch, err := s.branches.FindByPath(ctx, path)
	if err != nil {
		return models.View{}, err
	}
	return models.View{Path: branch.Path, Timepoint: branch.Head}, nil
}

// OpenCommit locks the branch and returns the commit together with a context that
// carries its transaction. Stores must be called with the returned context.
func (s *Service) OpenCommit(ctx context.Context, path string, commitType models.CommitType, lockMessage string) (context.Context, *models.Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.open[path]; ok {
		return ctx, nil, fmt.Errorf("branch %s is locked by commit %s (%s): %w",
			path, current.commit.ID, current.commit.LockMessage, sentinel.ErrConflict)
	}
	branch, err := s.branches.FindByPath(ctx, path)
	if err != nil {
		return ctx, nil, err
	}

	timepoint := s.now()
	if !timepoint.After(branch.Head) {
		timepoint = branch.Head.Add(time.Millisecond)
	}
	branch.Locked = true
	commit := &models.Commit{
		ID:          uuid.New(),
		Branch:      branch,
		Type:        commitType,
		Timepoint:   timepoint,
		LockMessage: lockMessage,
	}

	open := &openCommit{commit: commit}
	if s.db != nil {
		sqlTx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return ctx, nil, fmt.Errorf("begin commit transaction: %w", err)
		}
		open.sqlTx = sqlTx
		ctx = tx.WithTx(ctx, sqlTx)
	}
	s.open[path] = open

	s.logger.DebugContext(ctx, "commit opened",
		"branch", path,
		"commit_id", commit.ID,
		"type", commitType.String(),
		"timepoint", timepoint,
	)
	return ctx, commit, nil
}

// Complete runs the commit listeners, advances the branch head and releases the lock.
// A listener error aborts the commit and is returned.
func (s *Service) Complete(ctx context.Context, commit *models.Commit) error {
	open, err := s.lookup(commit)
	if err != nil {
		return err
	}

	s.mu.Lock()
	listeners := append([]CommitListener(nil), s.listeners...)
	s.mu.Unlock()

	for _, listener := range listeners {
		if err := listener.PreCommitCompletion(ctx, commit); err != nil {
			if abortErr := s.Abort(ctx, commit); abortErr != nil {
				err = errors.Join(err, abortErr)
			}
			return fmt.Errorf("commit %s on %s aborted: %w", commit.ID, commit.Branch.Path, err)
		}
	}

	branch := commit.Branch.Clone()
	branch.Head = commit.Timepoint
	branch.Locked = false
	if err := s.branches.Update(ctx, branch); err != nil {
		if abortErr := s.Abort(ctx, commit); abortErr != nil {
			err = errors.Join(err, abortErr)
		}
		return fmt.Errorf("advance branch head: %w", err)
	}
	if open.sqlTx != nil {
		if err := open.sqlTx.Commit(); err != nil {
			s.release(commit)
			return fmt.Errorf("commit transaction: %w", err)
		}
	}
	s.release(commit)

	s.logger.InfoContext(ctx, "commit completed",
		"branch", commit.Branch.Path,
		"commit_id", commit.ID,
		"type", commit.Type.String(),
	)
	return nil
}

// Abort discards everything written through the commit and releases the lock.
func (s *Service) Abort(ctx context.Context, commit *models.Commit) error {
	open, err := s.lookup(commit)
	if err != nil {
		return err
	}

	var errs []error
	if open.sqlTx != nil {
		if err := open.sqlTx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, fmt.Errorf("rollback transaction: %w", err))
		}
	}

	s.mu.Lock()
	handlers := append([]RollbackHandler(nil), s.rollbacks...)
	s.mu.Unlock()

	rollbackCtx := context.WithoutCancel(ctx)
	for _, handler := range handlers {
		if err := handler.RollbackCommit(rollbackCtx, commit); err != nil {
			errs = append(errs, err)
		}
	}
	s.release(commit)

	s.logger.WarnContext(ctx, "commit aborted",
		"branch", commit.Branch.Path,
		"commit_id", commit.ID,
	)
	return errors.Join(errs...)
}

// WithCommit opens a commit, runs fn and completes the commit, aborting it when fn
// fails or panics.
func (s *Service) WithCommit(ctx context.Context, path string, commitType models.CommitType, lockMessage string,
	fn func(ctx context.Context, commit *models.Commit) error) error {
	commitCtx, commit, err := s.OpenCommit(ctx, path, commitType, lockMessage)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			_ = s.Abort(commitCtx, commit)
			panic(r)
		}
	}()

	if err := fn(commitCtx, commit); err != nil {
		if abortErr := s.Abort(commitCtx, commit); abortErr != nil {
			return errors.Join(err, abortErr)
		}
		return err
	}
	return s.Complete(commitCtx, commit)
}

func (s *Service) lookup(commit *models.Commit) (*openCommit, error) {
	if commit == nil || commit.Branch == nil {
		return nil, errors.New("commit is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	open, ok := s.open[commit.Branch.Path]
	if !ok || open.commit.ID != commit.ID {
		return nil, fmt.Errorf("commit %s is not open on %s: %w", commit.ID, commit.Branch.Path, sentinel.ErrNotFound)
	}
	return open, nil
}

func (s *Service) release(commit *models.Commit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.open, commit.Branch.Path)
}

// now truncates to milliseconds, the resolution timepoints are stored with.
func (s *Service) now() time.Time {
	return s.clock().UTC().Truncate(time.Millisecond)
}
