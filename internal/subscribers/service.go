package subscribers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/RabowNicholas/sanctuary-sms-tool/internal/phoneutil"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/store"
)

// MaxBulkImport is the largest number of phone numbers accepted by a
// single bulk-import call.
const MaxBulkImport = 5000

// ImportOutcome classifies the fate of one candidate phone number.
type ImportOutcome string

const (
	ImportAdded             ImportOutcome = "added"
	ImportSkippedDuplicate  ImportOutcome = "skipped-duplicate"
	ImportRejectedInvalid   ImportOutcome = "rejected-invalid-format"
)

// ImportResult is the per-entry outcome returned to the caller of Import.
type ImportResult struct {
	Raw     string
	Outcome ImportOutcome
}

// ListEnroller enrolls a subscriber into a list as part of bulk import.
// Satisfied by *lists.Repository; kept as an interface here so subscribers
// has no import-time dependency on the lists package.
type ListEnroller interface {
	AddMember(ctx context.Context, q store.Querier, listID, subscriberID uuid.UUID) error
}

// Service wraps Repository with the higher-level operations the admin API
// exposes, such as bulk import.
type Service struct {
	repo     *Repository
	pool     store.Pool
	enroller ListEnroller
}

// NewService builds a Service. enroller may be nil if list enrollment is
// never requested.
func NewService(repo *Repository, pool store.Pool, enroller ListEnroller) *Service {
	return &Service{repo: repo, pool: pool, enroller: enroller}
}

// Import normalizes and inserts up to MaxBulkImport candidate phone
// numbers, returning one ImportResult per input entry in order. When
// listID is non-nil, every newly-added subscriber is enrolled in that
// list with JoinedViaKeyword set to "bulk-import".
func (s *Service) Import(ctx context.Context, raw []string, listID *uuid.UUID) ([]ImportResult, error) {
	if len(raw) > MaxBulkImport {
		return nil, fmt.Errorf("%w: %d entries exceeds max of %d", ErrInvalidInput, len(raw), MaxBulkImport)
	}

	results := make([]ImportResult, len(raw))
	for i, entry := range raw {
		phone, err := phoneutil.Normalize(entry)
		if err != nil {
			results[i] = ImportResult{Raw: entry, Outcome: ImportRejectedInvalid}
			continue
		}

		if existing, err := s.repo.FindByPhone(ctx, phone); err == nil {
			if listID != nil && s.enroller != nil {
				_ = s.enroller.AddMember(ctx, nil, *listID, existing.ID)
			}
			results[i] = ImportResult{Raw: entry, Outcome: ImportSkippedDuplicate}
			continue
		}

		via := "bulk-import"
		sub := &Subscriber{PhoneNumber: phone, IsActive: true, JoinedViaKeyword: &via}

		err = store.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
			if err := s.repo.Create(ctx, tx, sub); err != nil {
				return err
			}
			if listID != nil && s.enroller != nil {
				return s.enroller.AddMember(ctx, tx, *listID, sub.ID)
			}
			return nil
		})
		if err != nil {
			results[i] = ImportResult{Raw: entry, Outcome: ImportRejectedInvalid}
			continue
		}
		results[i] = ImportResult{Raw: entry, Outcome: ImportAdded}
	}
	return results, nil
}
