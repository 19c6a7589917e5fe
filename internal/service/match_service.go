package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/peer-match-api/internal/dto"
	"github.com/noah-isme/peer-match-api/internal/models"
	appErrors "github.com/noah-isme/peer-match-api/pkg/errors"
)

// BulkLockKey names the mutual-exclusion key held for the duration of a bulk run.
const BulkLockKey = "peer-match:bulk-match"

type matchStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListAll(ctx context.Context) ([]models.Student, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Student, error)
	ListUnmatched(ctx context.Context, ids []string) ([]models.Student, error)
}

type matchPeerRepository interface {
	FindByID(ctx context.Context, id string) (*models.Peer, error)
	ListAll(ctx context.Context) ([]models.Peer, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Peer, error)
	ListUnmatched(ctx context.Context, ids []string) ([]models.Peer, error)
}

type matchSessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	FindDetailByID(ctx context.Context, id string) (*models.SessionDetail, error)
}

type bulkLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, token string) error
}

// MatchConfig tunes ranking limits and bulk locking.
type MatchConfig struct {
	DefaultCandidates int
	MaxCandidates     int
	BulkLockTTL       time.Duration
}

// MatchService exposes scoring, ranking, single session creation and bulk matching.
type MatchService struct {
	students  matchStudentRepository
	peers     matchPeerRepository
	sessions  matchSessionRepository
	locker    bulkLocker
	matcher   *BulkMatcher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    MatchConfig
	now       func() time.Time
}

// NewMatchService constructs a MatchService. A nil locker disables bulk run exclusion.
func NewMatchService(students matchStudentRepository, peers matchPeerRepository, sessions matchSessionRepository, locker bulkLocker, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg MatchConfig) *MatchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultCandidates <= 0 {
		cfg.DefaultCandidates = 3
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 50
	}
	if cfg.BulkLockTTL <= 0 {
		cfg.BulkLockTTL = 2 * time.Minute
	}
	return &MatchService{
		students:  students,
		peers:     peers,
		sessions:  sessions,
		locker:    locker,
		matcher:   NewBulkMatcher(logger),
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Score computes the compatibility of one stored student/peer pair.
func (s *MatchService) Score(ctx context.Context, studentID, peerID string) (*models.ScoreResult, error) {
	if strings.TrimSpace(studentID) == "" || strings.TrimSpace(peerID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student_id and peer_id are required")
	}
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	peer, err := s.loadPeer(ctx, peerID, "peer not found")
	if err != nil {
		return nil, err
	}
	result := ComputeScore(*student, *peer)
	return &result, nil
}

// RankCandidates returns the top peers for a student. limit <= 0 uses the configured default.
func (s *MatchService) RankCandidates(ctx context.Context, studentID string, limit int) ([]models.Candidate, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student_id is required")
	}
	if limit <= 0 {
		limit = s.config.DefaultCandidates
	}
	if limit > s.config.MaxCandidates {
		limit = s.config.MaxCandidates
	}

	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	peers, err := s.peers.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load peers")
	}
	if len(peers) == 0 {
		return nil, appErrors.ErrEmptyCandidateSet
	}

	ranked := RankCandidates(*student, peers)
	s.metrics.RecordRanking(len(peers))
	return TopCandidates(ranked, limit), nil
}

// CreateMatchedSession persists a pending session for an explicitly chosen peer.
func (s *MatchService) CreateMatchedSession(ctx context.Context, req dto.CreateSessionRequest) (*dto.CreatedSessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	student, err := s.loadStudent(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	peer, err := s.loadPeer(ctx, req.PeerID, "chosen peer not found")
	if err != nil {
		return nil, err
	}
	score := ComputeScore(*student, *peer)

	session := &models.Session{
		StudentID: student.ID,
		PeerID:    peer.ID,
		Topic:     sessionTopic(req.Topic, student.Subject),
		Status:    models.SessionStatusPending,
		Remarks:   req.Remarks,
	}
	if req.ScheduledAt != nil {
		session.ScheduledAt = req.ScheduledAt.UTC()
	} else {
		session.ScheduledAt = s.now()
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, appErrors.Storage(err, "failed to create session")
	}
	detail, err := s.sessions.FindDetailByID(ctx, session.ID)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load created session")
	}

	s.logger.Info("session created",
		zap.String("session_id", session.ID),
		zap.String("student_id", student.ID),
		zap.String("peer_id", peer.ID),
		zap.Float64("score", score.Total))

	return &dto.CreatedSessionResponse{Session: *detail, Score: score}, nil
}

// RunBulkMatch greedily pairs students with peers and stores one matched session per pair.
// On interruption the assignments committed so far are returned with the error.
func (s *MatchService) RunBulkMatch(ctx context.Context, req dto.BulkMatchRequest) (*dto.BulkMatchResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk match payload")
	}

	if s.locker != nil {
		token, ok, err := s.locker.Acquire(ctx, BulkLockKey, s.config.BulkLockTTL)
		if err != nil {
			return nil, appErrors.Storage(err, "failed to acquire bulk match lock")
		}
		if !ok {
			s.metrics.RecordBulkRun(BulkOutcomeLocked, 0, 0, 0)
			return nil, appErrors.ErrLockNotAcquired
		}
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), BulkLockKey, token); err != nil {
				s.logger.Warn("failed to release bulk match lock", zap.Error(err))
			}
		}()
		stop := s.keepLease(ctx, token)
		defer stop()
	}

	students, peers, err := s.loadBulkInput(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(students) == 0 || len(peers) == 0 {
		s.metrics.RecordBulkRun(BulkOutcomeRejected, 0, 0, 0)
		return nil, appErrors.ErrInsufficientInput
	}

	started := time.Now()
	var (
		mu          sync.Mutex
		assignments = make([]models.Assignment, 0, min(len(students), len(peers)))
	)
	commit := func(ctx context.Context, edge models.MatchEdge) error {
		detail, err := s.commitEdge(ctx, edge)
		if err != nil {
			return err
		}
		mu.Lock()
		assignments = append(assignments, models.Assignment{Session: *detail, Score: edge.Score, Breakdown: edge.Breakdown})
		mu.Unlock()
		return nil
	}

	result, matchErr := s.matcher.Match(ctx, students, peers, commit)
	response := &dto.BulkMatchResponse{
		Created: assignments,
		Summary: dto.BulkMatchSummary{
			TotalCreated: len(assignments),
			Students:     len(students),
			Peers:        len(peers),
		},
	}
	if result != nil {
		response.Summary.Failed = result.Failed
	}

	if matchErr != nil {
		s.metrics.RecordBulkRun(BulkOutcomeInterrupted, response.Summary.TotalCreated, response.Summary.Failed, time.Since(started))
		s.logger.Warn("bulk match interrupted",
			zap.Int("created", response.Summary.TotalCreated),
			zap.Int("failed", response.Summary.Failed),
			zap.Error(matchErr))
		return response, appErrors.Wrap(matchErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "bulk match interrupted")
	}

	s.metrics.RecordBulkRun(BulkOutcomeCompleted, response.Summary.TotalCreated, response.Summary.Failed, time.Since(started))
	s.logger.Info("bulk match completed",
		zap.Int("students", len(students)),
		zap.Int("peers", len(peers)),
		zap.Int("edges", result.Edges),
		zap.Int("created", response.Summary.TotalCreated),
		zap.Int("failed", response.Summary.Failed),
		zap.Duration("duration", time.Since(started)))
	return response, nil
}

// keepLease extends the bulk lock every third of its TTL until stop returns.
func (s *MatchService) keepLease(ctx context.Context, token string) (stop func()) {
	interval := s.config.BulkLockTTL / 3
	if interval <= 0 {
		interval = s.config.BulkLockTTL
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			ok, err := s.locker.Extend(ctx, BulkLockKey, token, s.config.BulkLockTTL)
			switch {
			case ctx.Err() != nil:
				return
			case err != nil:
				s.logger.Warn("failed to extend bulk match lock", zap.Error(err))
			case !ok:
				s.logger.Warn("bulk match lock lost before the run finished")
				return
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func (s *MatchService) loadBulkInput(ctx context.Context, req dto.BulkMatchRequest) ([]models.Student, []models.Peer, error) {
	var (
		students []models.Student
		peers    []models.Peer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		switch {
		case req.OnlyUnmatched:
			students, err = s.students.ListUnmatched(gctx, req.StudentIDs)
		case len(req.StudentIDs) > 0:
			students, err = s.students.ListByIDs(gctx, req.StudentIDs)
		default:
			students, err = s.students.ListAll(gctx)
		}
		if err != nil {
			return appErrors.Storage(err, "failed to load students")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		switch {
		case req.OnlyUnmatched:
			peers, err = s.peers.ListUnmatched(gctx, req.PeerIDs)
		case len(req.PeerIDs) > 0:
			peers, err = s.peers.ListByIDs(gctx, req.PeerIDs)
		default:
			peers, err = s.peers.ListAll(gctx)
		}
		if err != nil {
			return appErrors.Storage(err, "failed to load peers")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return students, peers, nil
}

func (s *MatchService) commitEdge(ctx context.Context, edge models.MatchEdge) (*models.SessionDetail, error) {
	session := &models.Session{
		StudentID:   edge.StudentID,
		PeerID:      edge.PeerID,
		Topic:       models.DefaultSessionTopic,
		ScheduledAt: s.now(),
		Status:      models.SessionStatusMatched,
		Remarks:     AutoMatchRemark(edge.Score),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("store session for %s/%s: %w", edge.StudentID, edge.PeerID, err)
	}
	detail, err := s.sessions.FindDetailByID(ctx, session.ID)
	if err != nil {
		s.logger.Warn("bulk match session stored but not reloaded", zap.String("session_id", session.ID), zap.Error(err))
		return &models.SessionDetail{Session: *session}, nil
	}
	return detail, nil
}

// AutoMatchRemark is the remark stamped on sessions created by bulk matching.
func AutoMatchRemark(score float64) string {
	return fmt.Sprintf("auto-match (score %s)", strconv.FormatFloat(score, 'f', -1, 64))
}

func sessionTopic(requested, subject string) string {
	if topic := strings.TrimSpace(requested); topic != "" {
		return topic
	}
	if topic := strings.TrimSpace(subject); topic != "" {
		return topic
	}
	return models.DefaultSessionTopic
}

func (s *MatchService) loadStudent(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Storage(err, "failed to load student")
	}
	return student, nil
}

func (s *MatchService) loadPeer(ctx context.Context, id, notFound string) (*models.Peer, error) {
	peer, err := s.peers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, notFound)
		}
		return nil, appErrors.Storage(err, "failed to load peer")
	}
	return peer, nil
}
