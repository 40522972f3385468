package handlers

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/rohits-web03/dnastore/internal/models"
	"github.com/rohits-web03/dnastore/internal/repositories"
	"github.com/rohits-web03/dnastore/internal/utils"
)

type UserHandler struct {
	users  UserStore
	seqs   SequenceStore
	logger *log.Logger
}

func NewUserHandler(users UserStore, seqs SequenceStore, logger *log.Logger) *UserHandler {
	return &UserHandler{users: users, seqs: seqs, logger: logger.With("handler", "user")}
}

// GET /users
// ListUsers godoc
// @Summary List all users
// @Tags Users
// @Produce json
// @Success 200 {object} utils.Payload{data=[]models.User}
// @Header 200 {integer} X-Total-Count "Number of users returned"
// @Router /users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	respondList(w, h.logger, h.users.List(r.Context()), "Users retrieved")
}

// GET /users/{id}
// GetUser godoc
// @Summary Get a user by id
// @Tags Users
// @Produce json
// @Param id path int true "User id"
// @Success 200 {object} utils.Payload{data=models.User}
// @Failure 400 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /users/{id} [get]
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err, "User not found")
		return
	}
	utils.JSONResponse(w, http.StatusOK, utils.Payload{Success: true, Message: "User retrieved", Data: user})
}

// GET /users/external?benchlingId=
// GetUserByBenchlingID godoc
// @Summary Get a user by their Benchling id
// @Tags Users
// @Produce json
// @Param benchlingId query string true "Benchling id"
// @Success 200 {object} utils.Payload{data=models.User}
// @Failure 400 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /users/external [get]
func (h *UserHandler) GetByExternalID(w http.ResponseWriter, r *http.Request) {
	benchlingID := strings.TrimSpace(r.URL.Query().Get("benchlingId"))
	if benchlingID == "" {
		utils.Fail(w, http.StatusBadRequest, "benchlingId is required")
		return
	}
	user, err := h.users.GetByExternalID(r.Context(), benchlingID)
	if err != nil {
		respondError(w, h.logger, err, "User not found")
		return
	}
	utils.JSONResponse(w, http.StatusOK, utils.Payload{Success: true, Message: "User retrieved", Data: user})
}

// GET /users/{id}/dna
// ListUserSequences godoc
// @Summary List DNA sequences created by a user
// @Tags Users
// @Produce json
// @Param id path int true "User id"
// @Success 200 {object} utils.Payload{data=[]models.DNASequence}
// @Failure 404 {object} utils.Payload
// @Router /users/{id}/dna [get]
func (h *UserHandler) Sequences(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	found, err := h.users.Contains(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err, "")
		return
	}
	if !found {
		respondError(w, h.logger, repositories.ErrNotFound, "User not found")
		return
	}
	respondList(w, h.logger, h.seqs.ByUser(r.Context(), id), "DNA sequences retrieved")
}

// POST /users
// CreateUser godoc
// @Summary Create a user
// @Description An existing benchlingId is not an error; the stored user is left unchanged.
// @Tags Users
// @Accept json
// @Produce json
// @Param user body models.User true "User"
// @Success 201 {object} utils.Payload{data=models.User}
// @Success 200 {object} utils.Payload "User already exists"
// @Failure 400 {object} utils.Payload
// @Failure 422 {object} utils.Payload
// @Router /users [post]
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if !decodeJSON(w, r, &user) {
		return
	}
	if err := user.Validate(); err != nil {
		respondError(w, h.logger, err, "")
		return
	}

	created, err := h.users.Add(r.Context(), user)
	if err != nil {
		respondError(w, h.logger, err, "")
		return
	}
	if created == nil {
		utils.JSONResponse(w, http.StatusOK, utils.Payload{Success: true, Message: "User already exists"})
		return
	}
	utils.JSONResponse(w, http.StatusCreated, utils.Payload{Success: true, Message: "User created", Data: created})
}

// POST /users:bulk
// BulkCreateUsers godoc
// @Summary Create users in bulk
// @Description Only users that did not exist are returned.
// @Tags Users
// @Accept json
// @Produce json
// @Param users body []models.User true "Users"
// @Success 200 {object} utils.Payload{data=[]models.User}
// @Failure 400 {object} utils.Payload
// @Failure 422 {object} utils.Payload
// @Router /users:bulk [post]
func (h *UserHandler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	if !decodeJSON(w, r, &users) {
		return
	}
	if err := models.ValidateUsers(users); err != nil {
		respondError(w, h.logger, err, "")
		return
	}

	inserted, err := h.users.Update(r.Context(), users)
	if err != nil {
		respondError(w, h.logger, err, "")
		return
	}
	utils.JSONResponse(w, http.StatusOK, utils.Payload{Success: true, Message: "Users inserted", Data: inserted})
}
