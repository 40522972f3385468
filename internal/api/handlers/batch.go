package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rohits-web03/dnastore/internal/models"
	"github.com/rohits-web03/dnastore/internal/tasks"
	"github.com/rohits-web03/dnastore/internal/utils"
)

const archiveLinkTTL = 15 * time.Minute

type BatchResponse struct {
	ID uint `json:"id"`
}

type BatchStatusResponse struct {
	ID     uint               `json:"id"`
	Status models.BatchStatus `json:"status"`
}

type ArchiveLinkResponse struct {
	URL       string `json:"url"`
	ExpiresIn string `json:"expiresIn"`
}

type BatchHandler struct {
	statuses  BatchStatusReader
	seqs      SequenceStore
	submitter BatchSubmitter
	archive   ArchiveLinker
	logger    *log.Logger
}

// NewBatchHandler builds the batch endpoints. archive may be nil when no object
// storage is configured.
func NewBatchHandler(statuses BatchStatusReader, seqs SequenceStore, submitter BatchSubmitter, archive ArchiveLinker, logger *log.Logger) *BatchHandler {
	return &BatchHandler{
		statuses:  statuses,
		seqs:      seqs,
		submitter: submitter,
		archive:   archive,
		logger:    logger.With("handler", "batch"),
	}
}

// POST /dna/batch
// SubmitBatch godoc
// @Summary Upload a batch of DNA sequences for background processing
// @Description Returns the batch id immediately. Poll the status endpoint for the outcome.
// @Tags Batches
// @Accept json
// @Produce json
// @Param sequences body []models.DNASequence true "Sequences"
// @Success 200 {object} utils.Payload{data=BatchResponse}
// @Failure 400 {object} utils.Payload
// @Failure 422 {object} utils.Payload
// @Failure 503 {object} utils.Payload{data=BatchResponse}
// @Router /dna/batch [post]
func (h *BatchHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var seqs []models.DNASequence
	if !decodeJSON(w, r, &seqs) {
		return
	}
	if err := models.ValidateSequences(seqs); err != nil {
		respondError(w, h.logger, err, "")
		return
	}

	id, err := h.submitter.Submit(r.Context(), seqs)
	if errors.Is(err, tasks.ErrQueueFull) && id != 0 {
		utils.JSONResponse(w, http.StatusServiceUnavailable, utils.Payload{
			Success: false,
			Message: "Batch queue is full, the batch was marked failed",
			Data:    BatchResponse{ID: id},
		})
		return
	}
	if err != nil {
		respondError(w, h.logger, err, "")
		return
	}
	utils.JSONResponse(w, http.StatusOK, utils.Payload{Success: true, Message: "Batch accepted", Data: BatchResponse{ID: id}})
}

// GET /dna/batch/{id}/status
// GetBatchStatus godoc
// @Summary Poll the status of a batch upload
// @Tags Batches
// @Produce json
// @Param id path int true "Batch id"
// @Success 200 {object} utils.Payload{data=BatchStatusResponse}
// @Failure 404 {object} utils.Payload
// @Router /dna/batch/{id}/status [get]
func (h *BatchHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	status, err := h.statuses.GetBatchStatus(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err, "Batch not found")
		return
	}
	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Batch status retrieved",
		Data:    BatchStatusResponse{ID: id, Status: status},
	})
}

// GET /dna/batch/{id}
// ListBatchSequences godoc
// @Summary List the DNA sequences associated with a batch
// @Tags Batches
// @Produce json
// @Param id path int true "Batch id"
// @Success 200 {object} utils.Payload{data=[]models.DNASequence}
// @Failure 404 {object} utils.Payload
// @Router /dna/batch/{id} [get]
func (h *BatchHandler) Sequences(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.statuses.GetBatchStatus(r.Context(), id); err != nil {
		respondError(w, h.logger, err, "Batch not found")
		return
	}
	respondList(w, h.logger, h.seqs.ByBatch(r.Context(), id), "DNA sequences retrieved")
}

// GET /dna/batch/{id}/archive
// GetBatchArchive godoc
// @Summary Get a download link for the raw submitted batch
// @Tags Batches
// @Produce json
// @Param id path int true "Batch id"
// @Success 200 {object} utils.Payload{data=ArchiveLinkResponse}
// @Failure 404 {object} utils.Payload
// @Router /dna/batch/{id}/archive [get]
func (h *BatchHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if h.archive == nil {
		utils.Fail(w, http.StatusNotFound, "Batch archive is not configured")
		return
	}
	if _, err := h.statuses.GetBatchStatus(r.Context(), id); err != nil {
		respondError(w, h.logger, err, "Batch not found")
		return
	}

	exists, err := h.archive.Exists(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err, "")
		return
	}
	if !exists {
		utils.Fail(w, http.StatusNotFound, "Batch archive not found")
		return
	}

	url, err := h.archive.PresignGet(r.Context(), id, archiveLinkTTL)
	if err != nil {
		respondError(w, h.logger, err, "")
		return
	}
	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Archive link generated",
		Data:    ArchiveLinkResponse{URL: url, ExpiresIn: archiveLinkTTL.String()},
	})
}
