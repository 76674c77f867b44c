package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/klokku/meeting-scheduler/internal/rest"
	log "github.com/sirupsen/logrus"
)

var validate = validator.New()

type UserDTO struct {
	Id   string `json:"id" validate:"required,max=128"`
	Name string `json:"name" validate:"max=256"`
}

type Handler struct {
	userService Service
}

func NewHandler(userService Service) *Handler {
	return &Handler{
		userService: userService,
	}
}

// CreateUser godoc
// @Summary Register a participant
// @Tags User
// @Accept json
// @Produce json
// @Param user body UserDTO true "User"
// @Success 201 {object} UserDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 409 {object} rest.ErrorResponse "User already exists"
// @Router /api/users [post]
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var dto UserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	if err := validate.Struct(dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid user data", err.Error())
		return
	}
	log.Tracef("Creating new user: %+v", dto)

	created, err := h.userService.CreateUser(r.Context(), dtoToUser(dto))
	if err != nil {
		switch {
		case errors.Is(err, ErrUserDataInvalid):
			rest.WriteError(w, http.StatusBadRequest, "Invalid user data", err.Error())
		case errors.Is(err, ErrUserExists):
			rest.WriteError(w, http.StatusConflict, "User already exists", err.Error())
		default:
			log.Errorf("failed to create user: %v", err)
			rest.WriteError(w, http.StatusInternalServerError, "Failed to create user", err.Error())
		}
		return
	}

	rest.WriteJSON(w, http.StatusCreated, userToDTO(created))
}

// GetUser godoc
// @Summary Get a participant
// @Tags User
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} UserDTO
// @Failure 404 {object} rest.ErrorResponse "User not found"
// @Router /api/users/{userId} [get]
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userId := mux.Vars(r)["userId"]
	u, err := h.userService.GetUser(r.Context(), userId)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			rest.WriteError(w, http.StatusNotFound, "User not found", err.Error())
			return
		}
		log.Errorf("failed to get user %s: %v", userId, err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to get user", err.Error())
		return
	}
	rest.WriteJSON(w, http.StatusOK, userToDTO(u))
}

func dtoToUser(dto UserDTO) User {
	return User{Id: dto.Id, Name: dto.Name}
}

func userToDTO(u User) UserDTO {
	return UserDTO{Id: u.Id, Name: u.Name}
}
