package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/rohits-web03/dnastore/internal/models"
	"gorm.io/gorm"
)

// InitBatch inserts a batch in the initiated state and returns its id.
func (d *DB) InitBatch(ctx context.Context) (uint, error) {
	var batch models.Batch
	err := d.Execute(ctx, func(tx *gorm.DB) error {
		return tx.Raw(`INSERT INTO batch DEFAULT VALUES RETURNING id, status`).Scan(&batch).Error
	})
	if err != nil {
		return 0, fmt.Errorf("create batch: %w", err)
	}
	return batch.ID, nil
}

// GetBatchStatus returns ErrNotFound for an unknown id.
func (d *DB) GetBatchStatus(ctx context.Context, id uint) (models.BatchStatus, error) {
	var batch models.Batch
	err := d.Execute(ctx, func(tx *gorm.DB) error {
		return tx.First(&batch, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("batch %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get batch %d: %w", id, err)
	}
	return batch.Status, nil
}

// AssociateAndComplete links sequenceIDs to the batch and marks it completed in one
// transaction. If that transaction fails, the batch is marked failed by a separate
// statement and the association error is returned.
func (d *DB) AssociateAndComplete(ctx context.Context, batchID uint, sequenceIDs []uint) error {
	err := d.Execute(ctx, func(tx *gorm.DB) error {
		if len(sequenceIDs) > 0 {
			members := make([]models.BatchMember, 0, len(sequenceIDs))
			for _, id := range sequenceIDs {
				members = append(members, models.BatchMember{BatchID: batchID, DNASequenceID: id})
			}
			if err := tx.Create(&members).Error; err != nil {
				return fmt.Errorf("associate sequences: %w", err)
			}
		}
		return transition(tx, batchID, models.BatchCompleted)
	})
	if err == nil {
		return nil
	}

	d.logger.Error("batch association failed", "batch_id", batchID, "sequences", len(sequenceIDs), "sqlstate", SQLState(err), "err", err)
	if failErr := d.FailBatch(ctx, batchID); failErr != nil {
		return errors.Join(err, failErr)
	}
	return err
}

// FailBatch marks an initiated batch as failed. It returns ErrBatchNotInitiated
// when the batch already reached a terminal state or does not exist.
func (d *DB) FailBatch(ctx context.Context, batchID uint) error {
	return d.Execute(ctx, func(tx *gorm.DB) error {
		return transition(tx, batchID, models.BatchFailed)
	})
}

// FailStaleBatches marks every batch still initiated as failed and returns how many changed.
func (d *DB) FailStaleBatches(ctx context.Context) (int64, error) {
	var affected int64
	err := d.Execute(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Batch{}).
			Where("status = ?", string(models.BatchInitiated)).
			Update("status", string(models.BatchFailed))
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("fail stale batches: %w", err)
	}
	return affected, nil
}

// transition is one-shot: only an initiated batch can move to a terminal status.
func transition(tx *gorm.DB, batchID uint, status models.BatchStatus) error {
	res := tx.Model(&models.Batch{}).
		Where("id = ? AND status = ?", batchID, string(models.BatchInitiated)).
		Update("status", string(status))
	if res.Error != nil {
		return fmt.Errorf("set batch %d %s: %w", batchID, status, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("set batch %d %s: %w", batchID, status, ErrBatchNotInitiated)
	}
	return nil
}
