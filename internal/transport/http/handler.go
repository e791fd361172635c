package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"quiz-event-service/internal/app"
	"quiz-event-service/internal/domain"
	"github.com/go-playground/validator/v10"
)

// SubmitScoreStatus is returned for every persisted score, whatever happened
// to the certificate afterwards.
const SubmitScoreStatus = "Score saved and certificate processed"

// Handler serves the quiz JSON endpoints.
type Handler struct {
	service  *app.QuizService
	validate *validator.Validate
}

func NewHandler(service *app.QuizService) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

type registrationRequest struct {
	Name      string `json:"name" validate:"required"`
	ClassName string `json:"class_name" validate:"required"`
	Mobile    string `json:"mobile" validate:"required"`
	Email     string `json:"email" validate:"required"`
}

type registrationResponse struct {
	Status    string `json:"status"`
	StudentID int64  `json:"student_id"`
	Message   string `json:"message"`
}

type scoreRequest struct {
	StudentID *int64 `json:"student_id" validate:"required"`
	Score     *int   `json:"score" validate:"required"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// LoginOrRegister handles POST /login-or-register.
func (h *Handler) LoginOrRegister(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.service.LoginOrRegister(r.Context(), domain.Identity{
		Name:      req.Name,
		ClassName: req.ClassName,
		Mobile:    req.Mobile,
		Email:     req.Email,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, registrationResponse{
		Status:    "success",
		StudentID: res.ParticipantID,
		Message:   string(res.Outcome),
	})
}

// Questions handles GET /questions.
func (h *Handler) Questions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.service.Questions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

// SubmitScore handles POST /submit-score. Certificate delivery failures are
// logged by the service and never change the response.
func (h *Handler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, err := h.service.SubmitScore(r.Context(), *req.StudentID, *req.Score); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: SubmitScoreStatus})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "invalid request body: " + err.Error()})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: err.Error()})
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrParticipantNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "Student not found"})
	case errors.Is(err, domain.ErrInvalidIdentity):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: err.Error()})
	default:
		log.Printf("request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}
