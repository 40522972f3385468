package repositories

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/rohits-web03/dnastore/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var onBenchlingIDConflict = clause.OnConflict{
	Columns:   []clause.Column{{Name: "benchling_id"}},
	DoNothing: true,
}

// UserRepository persists creators. Writes are insert-or-ignore on benchling_id;
// existing rows are never updated.
type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.Execute(ctx, func(tx *gorm.DB) error {
		return tx.First(&user, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &user, nil
}

func (r *UserRepository) GetByExternalID(ctx context.Context, benchlingID string) (*models.User, error) {
	var user models.User
	err := r.db.Execute(ctx, func(tx *gorm.DB) error {
		return tx.Where("benchling_id = ?", benchlingID).First(&user).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %q: %w", benchlingID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", benchlingID, err)
	}
	return &user, nil
}

// Get returns the user with benchlingID, inserting fallback when none exists.
// Concurrent callers racing on the same id all observe the single stored row.
func (r *UserRepository) Get(ctx context.Context, benchlingID string, fallback models.User) (*models.User, error) {
	if fallback.BenchlingID != benchlingID {
		return nil, &models.ValidationError{Field: "benchlingId", Reason: "fallback does not match lookup key"}
	}

	user, err := r.GetByExternalID(ctx, benchlingID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user, err = r.Add(ctx, fallback)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	// lost the insert race; the winner's row is committed
	return r.GetByExternalID(ctx, benchlingID)
}

// Add inserts user and returns the stored row, or nil when the benchling id already exists.
func (r *UserRepository) Add(ctx context.Context, user models.User) (*models.User, error) {
	row := models.User{BenchlingID: user.BenchlingID, Name: user.Name, Handle: user.Handle}

	var inserted int64
	err := r.db.Execute(ctx, func(tx *gorm.DB) error {
		res := tx.Clauses(onBenchlingIDConflict).Create(&row)
		inserted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return nil, fmt.Errorf("insert user %q: %w", user.BenchlingID, err)
	}
	if inserted == 0 {
		return nil, nil
	}
	return &row, nil
}

const insertUsers = `
INSERT INTO "user" (benchling_id, name, handle)
SELECT n.benchling_id, n.name, n.handle
FROM unnest(?::text[], ?::text[], ?::text[]) AS n (benchling_id, name, handle)
ON CONFLICT (benchling_id) DO NOTHING
RETURNING id, benchling_id, name, handle`

// Update bulk-inserts users in one statement and returns only the rows it created.
func (r *UserRepository) Update(ctx context.Context, users []models.User) ([]models.User, error) {
	inserted := make([]models.User, 0)
	if len(users) == 0 {
		return inserted, nil
	}

	ids := make([]string, len(users))
	names := make([]string, len(users))
	handles := make([]string, len(users))
	for i, u := range users {
		ids[i], names[i], handles[i] = u.BenchlingID, u.Name, u.Handle
	}

	err := r.db.Execute(ctx, func(tx *gorm.DB) error {
		return tx.Raw(insertUsers, textArray(ids), textArray(names), textArray(handles)).Scan(&inserted).Error
	})
	if err != nil {
		return nil, fmt.Errorf("bulk insert users: %w", err)
	}
	return inserted, nil
}

// List streams every user ordered by id.
func (r *UserRepository) List(ctx context.Context) iter.Seq2[models.User, error] {
	return stream(ctx, r.db, identity[models.User],
		`SELECT id, benchling_id, name, handle FROM "user" ORDER BY id`)
}

func (r *UserRepository) Contains(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db.Execute(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.User{}).Where("id = ?", id).Count(&n).Error
	})
	if err != nil {
		return false, fmt.Errorf("check user %d: %w", id, err)
	}
	return n > 0, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.Execute(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.User{}).Count(&n).Error
	})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func identity[T any](v T) T { return v }
