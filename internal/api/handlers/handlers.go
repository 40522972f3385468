package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rohits-web03/dnastore/internal/models"
	"github.com/rohits-web03/dnastore/internal/repositories"
	"github.com/rohits-web03/dnastore/internal/tasks"
	"github.com/rohits-web03/dnastore/internal/utils"
)

const maxBodyBytes = 32 << 20 // 32 MiB

// SequenceStore is implemented by repositories.DNARepository.
type SequenceStore interface {
	GetByID(ctx context.Context, id uint) (*models.DNASequence, error)
	GetByExternalID(ctx context.Context, benchlingID string) (*models.DNASequence, error)
	Add(ctx context.Context, seq models.DNASequence) (*models.DNASequence, error)
	Update(ctx context.Context, sequences []models.DNASequence) ([]models.DNASequence, error)
	All(ctx context.Context) iter.Seq2[models.DNASequence, error]
	Search(ctx context.Context, pattern string) iter.Seq2[models.DNASequence, error]
	ByBatch(ctx context.Context, batchID uint) iter.Seq2[models.DNASequence, error]
	ByUser(ctx context.Context, userID uint) iter.Seq2[models.DNASequence, error]
}

// UserStore is implemented by repositories.UserRepository.
type UserStore interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByExternalID(ctx context.Context, benchlingID string) (*models.User, error)
	Add(ctx context.Context, user models.User) (*models.User, error)
	Update(ctx context.Context, users []models.User) ([]models.User, error)
	List(ctx context.Context) iter.Seq2[models.User, error]
	Contains(ctx context.Context, id uint) (bool, error)
}

type BatchStatusReader interface {
	GetBatchStatus(ctx context.Context, id uint) (models.BatchStatus, error)
}

type BatchSubmitter interface {
	Submit(ctx context.Context, sequences []models.DNASequence) (uint, error)
}

// ArchiveLinker is implemented by repositories.Archive.
type ArchiveLinker interface {
	Exists(ctx context.Context, batchID uint) (bool, error)
	PresignGet(ctx context.Context, batchID uint, expires time.Duration) (string, error)
}

// decodeJSON reads a size-capped body into dst, rejecting unknown fields.
// It writes the error response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.Fail(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		utils.Fail(w, http.StatusBadRequest, "Invalid input")
		return false
	}
	return true
}

// pathID parses the {id} path value. Ids past the integer column range cannot
// name a stored row and are reported as not found.
func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		utils.Fail(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	if id > math.MaxInt32 {
		utils.Fail(w, http.StatusNotFound, "Not found")
		return 0, false
	}
	return uint(id), true
}

// respondList collects seq and writes it with an X-Total-Count header.
func respondList[T any](w http.ResponseWriter, logger *log.Logger, seq iter.Seq2[T, error], message string) {
	items, err := repositories.Collect(seq)
	if err != nil {
		respondError(w, logger, err, "")
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(items)))
	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: message,
		Data:    items,
	})
}

// respondError maps domain errors onto status codes. Unexpected errors are
// logged and reported without detail.
func respondError(w http.ResponseWriter, logger *log.Logger, err error, notFound string) {
	var invalid *models.ValidationError
	switch {
	case errors.As(err, &invalid):
		utils.Fail(w, http.StatusUnprocessableEntity, invalid.Error())
	case errors.Is(err, repositories.ErrNotFound):
		if notFound == "" {
			notFound = "Not found"
		}
		utils.Fail(w, http.StatusNotFound, notFound)
	case errors.Is(err, tasks.ErrQueueFull), errors.Is(err, tasks.ErrStopped):
		utils.Fail(w, http.StatusServiceUnavailable, "Batch processing is unavailable, try again later")
	default:
		logger.Error("request failed", "err", err, "sqlstate", repositories.SQLState(err))
		utils.Fail(w, http.StatusInternalServerError, "Internal server error")
	}
}
