// Package service orchestrates the reconciliation engine around its stores:
// load before merge, persist after, one writer per entity key at a time.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"attest/internal/audit"
	"attest/internal/compliance"
	"attest/internal/record/merge"
	recordmetrics "attest/internal/record/metrics"
	"attest/internal/record/models"
	"attest/internal/record/store"
	"attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/sentinel"
	"attest/pkg/requestcontext"
)

// saveRetries bounds optimistic-concurrency retries per entity. The per-key
// mutex already serializes writers inside this process; retries only matter
// when another process shares the store.
const saveRetries = 3

// ingestParallelism caps concurrent per-entity merges within one batch.
const ingestParallelism = 8

// Service coordinates merges, status updates, compliance queries, and
// summaries. The engine itself stays pure; all I/O lives here.
type Service struct {
	records   store.RecordStore
	officers  store.OfficerStore
	engine    *merge.Engine
	evaluator *compliance.Evaluator
	logger    *slog.Logger
	metrics   *recordmetrics.Metrics
	audit     *audit.Publisher
	summaries *SummaryCache
	locks     *keyedMutex
	tracer    trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

func WithEngine(engine *merge.Engine) Option {
	return func(s *Service) { s.engine = engine }
}

func WithEvaluator(evaluator *compliance.Evaluator) Option {
	return func(s *Service) { s.evaluator = evaluator }
}

func WithMetrics(m *recordmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p *audit.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

func WithSummaryCache(c *SummaryCache) Option {
	return func(s *Service) { s.summaries = c }
}

func New(records store.RecordStore, officers store.OfficerStore, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		records:   records,
		officers:  officers,
		engine:    merge.NewEngine(),
		evaluator: compliance.NewEvaluator(),
		logger:    logger,
		locks:     newKeyedMutex(),
		tracer:    otel.Tracer("attest/record"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestResult reports per-entity outcomes of one extraction batch. Failed
// entities never block the rest; their stored state is unchanged.
type IngestResult struct {
	Merged   []string
	Failures map[string]error
}

// IngestExtractions folds a batch of per-document field guesses into the
// stored records. Guesses are grouped per entity; each entity is merged under
// its own key lock, distinct entities in parallel.
func (s *Service) IngestExtractions(ctx context.Context, batch []models.FieldGuess) (IngestResult, error) {
	ctx, span := s.tracer.Start(ctx, "record.ingest",
		trace.WithAttributes(attribute.Int("batch.guesses", len(batch))))
	defer span.End()

	if len(batch) == 0 {
		return IngestResult{Failures: map[string]error{}}, nil
	}

	groups := make(map[string][]models.FieldGuess)
	var order []string
	for _, guess := range batch {
		key := guess.Key.Canonical()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], guess)
	}

	result := IngestResult{Failures: make(map[string]error)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ingestParallelism)
	for _, key := range order {
		guesses := groups[key]
		g.Go(func() error {
			err := s.mergeEntity(gctx, key, guesses)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failures[key] = err
				return nil // entity-level failure, not batch-level
			}
			result.Merged = append(result.Merged, key)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	if len(result.Merged) > 0 {
		s.invalidateSummaries(ctx, batch)
	}
	return result, nil
}

// mergeEntity runs one load-merge-save cycle for a single entity under its
// key lock, retrying on optimistic-concurrency races.
func (s *Service) mergeEntity(ctx context.Context, key string, guesses []models.FieldGuess) error {
	entityKey := guesses[0].Key
	start := time.Now()

	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	var lastErr error
	for attempt := 0; attempt < saveRetries; attempt++ {
		snap, err := s.loadSnapshot(ctx, entityKey)
		if err != nil {
			return err
		}

		outcome := s.engine.Merge(requestcontext.Now(ctx), snap, guesses)
		if mergeErr, failed := outcome.Failures[key]; failed {
			s.recordRejection(ctx, entityKey, mergeErr)
			return mergeErr
		}

		if err := s.saveOutcome(ctx, outcome); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				lastErr = err
				continue // concurrent writer; reload and re-merge
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist merge")
		}

		if entityKey.Role.IsOfficer() {
			if err := s.linkOfficerToCompany(ctx, entityKey); err != nil {
				s.logger.WarnContext(ctx, "failed to link officer to company",
					"entity_key", key, "error", err)
			}
		}

		s.emitAudit(ctx, entityKey, audit.ActionMergeApplied, "")
		if s.metrics != nil {
			s.metrics.ObserveMerge(entityKey.Role.String(), start)
			// Discrepancies are recomputed in full on every merge, so only
			// the growth over the pre-merge snapshot counts as new.
			for _, record := range outcome.Records {
				prior := 0
				if before, ok := snap.Records[record.Key.Canonical()]; ok {
					prior = len(before.Discrepancies)
				}
				if delta := len(record.Discrepancies) - prior; delta > 0 {
					s.metrics.DiscrepanciesFound.Add(float64(delta))
				}
			}
		}
		return nil
	}
	return dErrors.Wrap(lastErr, dErrors.CodeConflict, "merge kept losing optimistic concurrency races")
}

func (s *Service) loadSnapshot(ctx context.Context, key domain.EntityKey) (merge.Snapshot, error) {
	snap := merge.Snapshot{
		Records:  make(map[string]*models.EntityRecord),
		Officers: make(map[string]*models.Officer),
	}
	canonical := key.Canonical()
	if key.Role.IsOfficer() {
		officer, err := s.officers.Load(ctx, key)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return snap, nil
			}
			return snap, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load officer")
		}
		snap.Officers[canonical] = officer
		return snap, nil
	}
	record, err := s.records.Load(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return snap, nil
		}
		return snap, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
	}
	snap.Records[canonical] = record
	return snap, nil
}

func (s *Service) saveOutcome(ctx context.Context, outcome merge.Outcome) error {
	for _, record := range outcome.Records {
		if err := s.records.Save(ctx, record); err != nil {
			return err
		}
	}
	for _, officer := range outcome.Officers {
		if err := s.officers.Save(ctx, officer); err != nil {
			return err
		}
	}
	return nil
}

// linkOfficerToCompany records the officer's name on the owning company's
// director/shareholder reference set, creating a pending company record on
// first sighting. References are weak: they carry no ownership of the row.
func (s *Service) linkOfficerToCompany(ctx context.Context, officerKey domain.EntityKey) error {
	companyKey, err := domain.NewEntityKey(officerKey.ClientID, domain.RoleCompany, officerKey.CompanyName, "")
	if err != nil {
		return err
	}
	refField := models.FieldDirectors
	if officerKey.Role == domain.RoleShareholder {
		refField = models.FieldShareholders
	}

	canonical := companyKey.Canonical()
	s.locks.Lock(canonical)
	defer s.locks.Unlock(canonical)

	var lastErr error
	for attempt := 0; attempt < saveRetries; attempt++ {
		record, err := s.records.Load(ctx, companyKey)
		if errors.Is(err, sentinel.ErrNotFound) {
			record = models.NewEntityRecord(companyKey, requestcontext.Now(ctx))
		} else if err != nil {
			return err
		}
		record.Company.AddReference(refField, officerKey.Name)
		if err := s.records.Save(ctx, record); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				lastErr = err
				continue
			}
			return err
		}
		return nil
	}
	return lastErr
}

// UpdateStatus applies an explicit human verification decision. It always
// succeeds for a known entity regardless of current state: a reviewer can
// re-open a locked record by setting it back to pending.
func (s *Service) UpdateStatus(ctx context.Context, key domain.EntityKey, status models.VerificationStatus, kycStatus *string) error {
	ctx, span := s.tracer.Start(ctx, "record.update_status",
		trace.WithAttributes(attribute.String("entity.role", key.Role.String())))
	defer span.End()

	if !status.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unsupported verification status %q", status)
	}

	canonical := key.Canonical()
	s.locks.Lock(canonical)
	defer s.locks.Unlock(canonical)

	now := requestcontext.Now(ctx)
	var lastErr error
	for attempt := 0; attempt < saveRetries; attempt++ {
		var err error
		if key.Role.IsOfficer() {
			err = s.updateOfficerStatus(ctx, key, status, kycStatus, now)
		} else {
			err = s.updateRecordStatus(ctx, key, status, kycStatus, now)
		}
		if errors.Is(err, sentinel.ErrConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return err
		}
		s.emitAudit(ctx, key, audit.ActionStatusChanged, status.String())
		if s.metrics != nil {
			s.metrics.StatusUpdatesTotal.Inc()
		}
		if s.summaries != nil {
			if err := s.summaries.Invalidate(ctx, key.ClientID); err != nil {
				s.logger.WarnContext(ctx, "failed to invalidate summary cache", "error", err)
			}
		}
		return nil
	}
	return dErrors.Wrap(lastErr, dErrors.CodeConflict, "status update kept losing optimistic concurrency races")
}

func (s *Service) updateRecordStatus(ctx context.Context, key domain.EntityKey, status models.VerificationStatus, kycStatus *string, now time.Time) error {
	record, err := s.records.Load(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "no record for entity %s", key)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
	}
	record.Status = status
	if kycStatus != nil {
		record.KYCStatus = *kycStatus
	}
	record.UpdatedAt = now
	return s.records.Save(ctx, record)
}

func (s *Service) updateOfficerStatus(ctx context.Context, key domain.EntityKey, status models.VerificationStatus, kycStatus *string, now time.Time) error {
	officer, err := s.officers.Load(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "no record for entity %s", key)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load officer")
	}
	officer.Status = status
	if kycStatus != nil {
		officer.KYCStatus = *kycStatus
	}
	officer.UpdatedAt = now
	return s.officers.Save(ctx, officer)
}

// Compliance evaluates what is still missing for one entity. Read-only.
func (s *Service) Compliance(ctx context.Context, key domain.EntityKey) (compliance.Result, error) {
	ctx, span := s.tracer.Start(ctx, "record.compliance")
	defer span.End()

	if key.Role.IsOfficer() {
		officer, err := s.officers.Load(ctx, key)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return compliance.Result{}, dErrors.Newf(dErrors.CodeNotFound, "no record for entity %s", key)
			}
			return compliance.Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load officer")
		}
		return s.evaluator.EvaluateOfficer(officer), nil
	}

	record, err := s.records.Load(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return compliance.Result{}, dErrors.Newf(dErrors.CodeNotFound, "no record for entity %s", key)
		}
		return compliance.Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
	}
	return s.evaluator.EvaluateRecord(record), nil
}

// Summary aggregates counts over a client's persisted records.
func (s *Service) Summary(ctx context.Context, clientID domain.ClientID) (Summary, error) {
	ctx, span := s.tracer.Start(ctx, "record.summary")
	defer span.End()

	if s.summaries != nil {
		if cached, ok := s.summaries.Get(ctx, clientID); ok {
			if s.metrics != nil {
				s.metrics.IncSummaryCache("hit")
			}
			return cached, nil
		}
		if s.metrics != nil {
			s.metrics.IncSummaryCache("miss")
		}
	}

	records, err := s.records.ListByClient(ctx, clientID)
	if err != nil {
		return Summary{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list records")
	}
	officers, err := s.officers.ListByClient(ctx, clientID)
	if err != nil {
		return Summary{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list officers")
	}

	summary := Summary{TotalEntities: len(records) + len(officers)}
	documents := make(map[domain.DocumentID]struct{})
	for _, record := range records {
		if len(record.Discrepancies) > 0 {
			summary.EntitiesWithDiscrepancies++
		}
		for docID := range record.DocumentIDs() {
			documents[docID] = struct{}{}
		}
	}
	summary.TotalDocuments = len(documents)

	if s.summaries != nil {
		if err := s.summaries.Set(ctx, clientID, summary); err != nil {
			s.logger.WarnContext(ctx, "failed to cache summary", "error", err)
		}
	}
	return summary, nil
}

func (s *Service) recordRejection(ctx context.Context, key domain.EntityKey, mergeErr error) {
	code := string(dErrors.CodeOf(mergeErr))
	s.logger.WarnContext(ctx, "merge rejected",
		"entity_key", key.Canonical(),
		"code", code,
		"error", mergeErr.Error(),
	)
	if s.metrics != nil {
		s.metrics.IncRejection(code)
	}
	s.emitAudit(ctx, key, audit.ActionMergeRejected, code)
}

func (s *Service) emitAudit(ctx context.Context, key domain.EntityKey, action audit.Action, reason string) {
	if s.audit == nil {
		return
	}
	s.audit.Emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		ClientID:  key.ClientID.String(),
		EntityKey: key.Canonical(),
		Role:      key.Role.String(),
		Action:    action,
		Reason:    reason,
	})
}

func (s *Service) invalidateSummaries(ctx context.Context, batch []models.FieldGuess) {
	if s.summaries == nil {
		return
	}
	seen := make(map[domain.ClientID]struct{})
	for _, guess := range batch {
		if _, done := seen[guess.Key.ClientID]; done {
			continue
		}
		seen[guess.Key.ClientID] = struct{}{}
		if err := s.summaries.Invalidate(ctx, guess.Key.ClientID); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate summary cache", "error", err)
		}
	}
}
