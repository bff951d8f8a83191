// Package merge implements the reconciliation core: folding raw per-document
// field guesses into canonical entity records with per-field provenance.
//
// The engine is a pure function of its inputs. It performs no I/O, holds no
// state across invocations, and never mutates the caller's snapshot; callers
// load records before a merge and persist the outcome after. That keeps
// replaying a batch, and re-merging the same document, cheap and
// side-effect-free.
package merge

import (
	"time"

	"attest/internal/record/models"
	"attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
)

// Snapshot carries the caller's current state for the entities referenced by
// a batch. Missing entries mean "first sighting"; the engine creates pending
// records for them. Keys are EntityKey.Canonical() strings.
type Snapshot struct {
	Records  map[string]*models.EntityRecord
	Officers map[string]*models.Officer
}

// Outcome is the result of one merge. Records and Officers hold the updated
// copies for successfully merged entities; Failures maps canonical entity
// keys to the coded error that rejected them. Failure of one entity never
// affects the others in the batch, and a failed entity's stored state is
// untouched.
type Outcome struct {
	Records  []*models.EntityRecord
	Officers []*models.Officer
	Failures map[string]error
}

// Engine folds extraction batches into entity records.
type Engine struct {
	policy    models.LockPolicy
	normalize Normalizer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLockPolicy overrides which roles honor the not_verified lock.
func WithLockPolicy(policy models.LockPolicy) Option {
	return func(e *Engine) { e.policy = policy }
}

// WithNormalizer overrides value normalization for discrepancy detection.
func WithNormalizer(n Normalizer) Option {
	return func(e *Engine) { e.normalize = n }
}

// NewEngine builds an engine with the default lock policy and normalizer.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		policy:    models.DefaultLockPolicy(),
		normalize: DefaultNormalizer,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Merge applies a batch of guesses to the snapshot and returns the updated
// entities. now stamps CreatedAt/UpdatedAt so one batch shares one timestamp.
//
// Per entity: guesses are validated, the lock is enforced, each guess upserts
// its document's provenance entry (re-processing a document replaces in
// place), and the discrepancy list is recomputed from scratch.
func (e *Engine) Merge(now time.Time, snap Snapshot, batch []models.FieldGuess) Outcome {
	outcome := Outcome{Failures: make(map[string]error)}

	groups, order := groupByEntity(batch)
	for _, key := range order {
		guesses := groups[key]
		entityKey := guesses[0].Key
		if entityKey.Role.IsOfficer() {
			officer, err := e.mergeOfficer(now, snap.Officers[key], guesses)
			if err != nil {
				outcome.Failures[key] = err
				continue
			}
			outcome.Officers = append(outcome.Officers, officer)
			continue
		}
		record, err := e.mergeRecord(now, snap.Records[key], guesses)
		if err != nil {
			outcome.Failures[key] = err
			continue
		}
		outcome.Records = append(outcome.Records, record)
	}
	return outcome
}

// groupByEntity buckets guesses by canonical entity key, preserving the
// batch's first-seen entity order so outcomes are deterministic.
func groupByEntity(batch []models.FieldGuess) (map[string][]models.FieldGuess, []string) {
	groups := make(map[string][]models.FieldGuess)
	var order []string
	for _, guess := range batch {
		key := guess.Key.Canonical()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], guess)
	}
	return groups, order
}

func (e *Engine) validate(key domain.EntityKey, guesses []models.FieldGuess) error {
	for _, guess := range guesses {
		if err := guess.Validate(); err != nil {
			return err
		}
		if !guess.Field.AllowedFor(key.Role) {
			return dErrors.Newf(dErrors.CodeRoleMismatch,
				"field %q does not belong to role %q", guess.Field, key.Role)
		}
	}
	return nil
}

func (e *Engine) mergeRecord(now time.Time, existing *models.EntityRecord, guesses []models.FieldGuess) (*models.EntityRecord, error) {
	key := guesses[0].Key
	if err := e.validate(key, guesses); err != nil {
		return nil, err
	}

	var record *models.EntityRecord
	if existing == nil {
		record = models.NewEntityRecord(key, now)
	} else {
		if e.locked(existing.Key.Role, existing.Status) {
			return nil, lockedErr(key)
		}
		record = existing.Clone()
	}

	for _, guess := range guesses {
		if guess.Field.IsReference() {
			record.Company.AddReference(guess.Field, guess.Value)
			continue
		}
		prov, ok := record.Provenance(guess.Field)
		if !ok {
			return nil, dErrors.Newf(dErrors.CodeRoleMismatch,
				"field %q does not belong to role %q", guess.Field, key.Role)
		}
		prov.Upsert(guess.Value, guess.Source)
	}

	record.Discrepancies = detectDiscrepancies(record, e.normalize)
	record.UpdatedAt = now
	return record, nil
}

func (e *Engine) mergeOfficer(now time.Time, existing *models.Officer, guesses []models.FieldGuess) (*models.Officer, error) {
	key := guesses[0].Key
	if err := e.validate(key, guesses); err != nil {
		return nil, err
	}

	var officer *models.Officer
	if existing == nil {
		officer = models.NewOfficer(key, now)
	} else {
		if e.locked(existing.Key.Role, existing.Status) {
			return nil, lockedErr(key)
		}
		officer = existing.Clone()
	}

	for _, guess := range guesses {
		field, ok := officer.Field(guess.Field)
		if !ok {
			return nil, dErrors.Newf(dErrors.CodeRoleMismatch,
				"field %q does not belong to role %q", guess.Field, key.Role)
		}
		field.Value = guess.Value
		field.Source = guess.Source.Describe()
	}

	officer.UpdatedAt = now
	return officer, nil
}

func (e *Engine) locked(role domain.Role, status models.VerificationStatus) bool {
	return e.policy.Lockable(role) && status.Locks()
}

func lockedErr(key domain.EntityKey) error {
	return dErrors.Newf(dErrors.CodeLockedRecord,
		"record %s failed verification and is locked against automated updates", key)
}
