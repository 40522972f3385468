package handlers

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/rohits-web03/dnastore/internal/models"
	"github.com/rohits-web03/dnastore/internal/utils"
)

type DNAHandler struct {
	seqs   SequenceStore
	logger *log.Logger
}

func NewDNAHandler(seqs SequenceStore, logger *log.Logger) *DNAHandler {
	return &DNAHandler{seqs: seqs, logger: logger.With("handler", "dna")}
}

// GET /dna
// ListSequences godoc
// @Summary List all DNA sequences
// @Tags DNA
// @Produce json
// @Success 200 {object} utils.Payload{data=[]models.DNASequence}
// @Header 200 {integer} X-Total-Count "Number of sequences returned"
// @Router /dna [get]
func (h *DNAHandler) List(w http.ResponseWriter, r *http.Request) {
	respondList(w, h.logger, h.seqs.All(r.Context()), "DNA sequences retrieved")
}

// GET /dna/{id}
// GetSequence godoc
// @Summary Get a DNA sequence by id
// @Tags DNA
// @Produce json
// @Param id path int true "Sequence id"
// @Success 200 {object} utils.Payload{data=models.DNASequence}
// @Failure 400 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /dna/{id} [get]
func (h *DNAHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	seq, err := h.seqs.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err, "DNA sequence not found")
		return
	}
	utils.JSONResponse(w, http.StatusOK, utils.Payload{Success: true, Message: "DNA sequence retrieved", Data: seq})
}

// GET /dna/external?benchlingId=
// GetSequenceByBenchlingID godoc
// @Summary Get a DNA sequence by its Benchling id
// @Tags DNA
// @Produce json
// @Param benchlingId query string true "Benchling id"
// @Success 200 {object} utils.Payload{data=models.DNASequence}
// @Failure 400 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /dna/external [get]
func (h *DNAHandler) GetByExternalID(w http.ResponseWriter, r *http.Request) {
	benchlingID := strings.TrimSpace(r.URL.Query().Get("benchlingId"))
	if benchlingID == "" {
		utils.Fail(w, http.StatusBadRequest, "benchlingId is required")
		return
	}
	seq, err := h.seqs.GetByExternalID(r.Context(), benchlingID)
	if err != nil {
		respondError(w, h.logger, err, "DNA sequence not found")
		return
	}
	utils.JSONResponse(w, http.StatusOK, utils.Payload{Success: true, Message: "DNA sequence retrieved", Data: seq})
}

// GET /dna/search?pattern=
// SearchSequences godoc
// @Summary Search DNA sequences by bases
// @Description Case-insensitive substring match against the bases of every sequence. An empty pattern matches every sequence.
// @Tags DNA
// @Produce json
// @Param pattern query string false "Substring to match"
// @Success 200 {object} utils.Payload{data=[]models.DNASequence}
// @Router /dna/search [get]
func (h *DNAHandler) Search(w http.ResponseWriter, r *http.Request) {
	respondList(w, h.logger, h.seqs.Search(r.Context(), r.URL.Query().Get("pattern")), "DNA sequences matched")
}

// POST /dna
// CreateSequence godoc
// @Summary Create a DNA sequence
// @Description Inserts the sequence and its creator if they do not exist yet. An existing benchlingId is not an error.
// @Tags DNA
// @Accept json
// @Produce json
// @Param sequence body models.DNASequence true "Sequence"
// @Success 201 {object} utils.Payload{data=models.DNASequence}
// @Success 200 {object} utils.Payload "Sequence already exists"
// @Failure 400 {object} utils.Payload
// @Failure 422 {object} utils.Payload
// @Router /dna [post]
func (h *DNAHandler) Create(w http.ResponseWriter, r *http.Request) {
	var seq models.DNASequence
	if !decodeJSON(w, r, &seq) {
		return
	}
	if err := seq.Validate(); err != nil {
		respondError(w, h.logger, err, "")
		return
	}

	created, err := h.seqs.Add(r.Context(), seq)
	if err != nil {
		respondError(w, h.logger, err, "")
		return
	}
	if created == nil {
		utils.JSONResponse(w, http.StatusOK, utils.Payload{Success: true, Message: "DNA sequence already exists"})
		return
	}
	utils.JSONResponse(w, http.StatusCreated, utils.Payload{Success: true, Message: "DNA sequence created", Data: created})
}

// POST /dna:bulk
// BulkCreateSequences godoc
// @Summary Create DNA sequences in bulk
// @Description Synchronous bulk insert. Only sequences that did not exist are returned.
// @Tags DNA
// @Accept json
// @Produce json
// @Param sequences body []models.DNASequence true "Sequences"
// @Success 200 {object} utils.Payload{data=[]models.DNASequence}
// @Failure 400 {object} utils.Payload
// @Failure 422 {object} utils.Payload
// @Router /dna:bulk [post]
func (h *DNAHandler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	var seqs []models.DNASequence
	if !decodeJSON(w, r, &seqs) {
		return
	}
	if err := models.ValidateSequences(seqs); err != nil {
		respondError(w, h.logger, err, "")
		return
	}

	inserted, err := h.seqs.Update(r.Context(), seqs)
	if err != nil {
		respondError(w, h.logger, err, "")
		return
	}
	utils.JSONResponse(w, http.StatusOK, utils.Payload{Success: true, Message: "DNA sequences inserted", Data: inserted})
}
