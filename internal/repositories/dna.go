package repositories

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/rohits-web03/dnastore/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sequenceRow is a dna_sequence row joined with its creator.
type sequenceRow struct {
	ID                 uint
	BenchlingID        string
	CreatorID          uint
	Name               string
	CreatedAt          time.Time
	Bases              string
	CreatorBenchlingID string
	CreatorName        string
	CreatorHandle      string
}

func (r sequenceRow) toModel() models.DNASequence {
	return models.DNASequence{
		ID:          r.ID,
		BenchlingID: r.BenchlingID,
		CreatorID:   r.CreatorID,
		Name:        r.Name,
		CreatedAt:   r.CreatedAt,
		Bases:       r.Bases,
		Creator: &models.User{
			ID:          r.CreatorID,
			BenchlingID: r.CreatorBenchlingID,
			Name:        r.CreatorName,
			Handle:      r.CreatorHandle,
		},
	}
}

const selectSequences = `
SELECT s.id, s.benchling_id, s.creator_id, s.name, s.created_at, s.bases,
	u.benchling_id AS creator_benchling_id, u.name AS creator_name, u.handle AS creator_handle
FROM dna_sequence s
JOIN "user" u ON u.id = s.creator_id`

// Creators are resolved by joining on their benchling id, so rows whose creator
// is not stored are left out of the insert.
const insertSequences = `
WITH inserted AS (
	INSERT INTO dna_sequence (benchling_id, creator_id, name, created_at, bases)
	SELECT n.benchling_id, u.id, n.name, n.created_at, n.bases
	FROM unnest(?::text[], ?::text[], ?::text[], ?::timestamptz[], ?::text[])
		AS n (benchling_id, creator_benchling_id, name, created_at, bases)
	JOIN "user" u ON u.benchling_id = n.creator_benchling_id
	ON CONFLICT (benchling_id) DO NOTHING
	RETURNING id, benchling_id, creator_id, name, created_at, bases
)
SELECT s.id, s.benchling_id, s.creator_id, s.name, s.created_at, s.bases,
	u.benchling_id AS creator_benchling_id, u.name AS creator_name, u.handle AS creator_handle
FROM inserted s
JOIN "user" u ON u.id = s.creator_id
ORDER BY s.id`

// DNARepository persists DNA sequences. Writes are insert-or-ignore on
// benchling_id (first write wins) and creators are resolved through UserRepository.
type DNARepository struct {
	db    *DB
	users *UserRepository
}

func NewDNARepository(db *DB, users *UserRepository) *DNARepository {
	return &DNARepository{db: db, users: users}
}

func (r *DNARepository) GetByID(ctx context.Context, id uint) (*models.DNASequence, error) {
	return r.getOne(ctx, fmt.Sprintf("dna sequence %d", id), selectSequences+` WHERE s.id = ?`, id)
}

func (r *DNARepository) GetByExternalID(ctx context.Context, benchlingID string) (*models.DNASequence, error) {
	return r.getOne(ctx, fmt.Sprintf("dna sequence %q", benchlingID), selectSequences+` WHERE s.benchling_id = ?`, benchlingID)
}

func (r *DNARepository) getOne(ctx context.Context, what, query string, args ...any) (*models.DNASequence, error) {
	var (
		row   sequenceRow
		found bool
	)
	err := r.db.Execute(ctx, func(tx *gorm.DB) error {
		res := tx.Raw(query, args...).Scan(&row)
		found = res.RowsAffected > 0
		return res.Error
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", what, err)
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	seq := row.toModel()
	return &seq, nil
}

// Add resolves the creator (inserting it if new) and inserts seq. It returns the
// stored sequence with its creator, or nil when the benchling id already exists.
func (r *DNARepository) Add(ctx context.Context, seq models.DNASequence) (*models.DNASequence, error) {
	if seq.Creator == nil {
		return nil, &models.ValidationError{Field: "creator", Reason: "is required"}
	}
	creator, err := r.users.Get(ctx, seq.Creator.BenchlingID, *seq.Creator)
	if err != nil {
		return nil, fmt.Errorf("resolve creator %q: %w", seq.Creator.BenchlingID, err)
	}

	row := models.DNASequence{
		BenchlingID: seq.BenchlingID,
		CreatorID:   creator.ID,
		Name:        seq.Name,
		CreatedAt:   seq.CreatedAt,
		Bases:       seq.Bases,
	}

	var inserted int64
	err = r.db.Execute(ctx, func(tx *gorm.DB) error {
		res := tx.Omit(clause.Associations).Clauses(onBenchlingIDConflict).Create(&row)
		inserted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return nil, fmt.Errorf("insert dna sequence %q: %w", seq.BenchlingID, err)
	}
	if inserted == 0 {
		return nil, nil
	}
	row.Creator = creator
	return &row, nil
}

// Update bulk-upserts the distinct creators, then inserts all sequences in one
// set-based statement. Only newly inserted sequences are returned.
func (r *DNARepository) Update(ctx context.Context, sequences []models.DNASequence) ([]models.DNASequence, error) {
	out := make([]models.DNASequence, 0)
	if len(sequences) == 0 {
		return out, nil
	}

	if _, err := r.users.Update(ctx, distinctCreators(sequences)); err != nil {
		return nil, err
	}

	n := len(sequences)
	ids, creators, names, bases := make([]string, n), make([]string, n), make([]string, n), make([]string, n)
	created := make([]time.Time, n)
	for i, s := range sequences {
		ids[i], names[i], created[i], bases[i] = s.BenchlingID, s.Name, s.CreatedAt, s.Bases
		if s.Creator != nil {
			creators[i] = s.Creator.BenchlingID
		}
	}

	var rows []sequenceRow
	err := r.db.Execute(ctx, func(tx *gorm.DB) error {
		return tx.Raw(insertSequences,
			textArray(ids), textArray(creators), textArray(names), timeArray(created), textArray(bases),
		).Scan(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("bulk insert dna sequences: %w", err)
	}

	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

// distinctCreators keeps the first occurrence of each creator benchling id.
func distinctCreators(sequences []models.DNASequence) []models.User {
	seen := make(map[string]struct{}, len(sequences))
	users := make([]models.User, 0, len(sequences))
	for _, s := range sequences {
		if s.Creator == nil {
			continue
		}
		if _, ok := seen[s.Creator.BenchlingID]; ok {
			continue
		}
		seen[s.Creator.BenchlingID] = struct{}{}
		users = append(users, *s.Creator)
	}
	return users
}

// All streams every sequence ordered by id.
func (r *DNARepository) All(ctx context.Context) iter.Seq2[models.DNASequence, error] {
	return stream(ctx, r.db, sequenceRow.toModel, selectSequences+` ORDER BY s.id`)
}

// Search streams sequences whose bases contain pattern, ignoring case. LIKE
// metacharacters in pattern match literally.
func (r *DNARepository) Search(ctx context.Context, pattern string) iter.Seq2[models.DNASequence, error] {
	return stream(ctx, r.db, sequenceRow.toModel,
		selectSequences+` WHERE s.bases ILIKE ? ORDER BY s.id`, "%"+escapeLike(pattern)+"%")
}

func (r *DNARepository) ByBatch(ctx context.Context, batchID uint) iter.Seq2[models.DNASequence, error] {
	return stream(ctx, r.db, sequenceRow.toModel,
		selectSequences+` JOIN dna_batch b ON b.dna_sequence_id = s.id WHERE b.batch_id = ? ORDER BY s.id`, batchID)
}

func (r *DNARepository) ByUser(ctx context.Context, userID uint) iter.Seq2[models.DNASequence, error] {
	return stream(ctx, r.db, sequenceRow.toModel,
		selectSequences+` WHERE u.id = ? ORDER BY s.id`, userID)
}

func (r *DNARepository) Contains(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db.Execute(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.DNASequence{}).Where("id = ?", id).Count(&n).Error
	})
	if err != nil {
		return false, fmt.Errorf("check dna sequence %d: %w", id, err)
	}
	return n > 0, nil
}

func (r *DNARepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.Execute(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.DNASequence{}).Count(&n).Error
	})
	if err != nil {
		return 0, fmt.Errorf("count dna sequences: %w", err)
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
