package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dibbydollars/backend/internal/services"
)

type CardHandler struct {
	service *services.CardService
}

func NewCardHandler(service *services.CardService) *CardHandler {
	return &CardHandler{service: service}
}

// GetLoginCard returns a student's printable login QR card
// @Summary Student login QR card
// @Description Base64 PNG QR card encoding the student's username
// @Tags students
// @Produce json
// @Param studentId path int true "Student ID"
// @Success 200 {object} object{cardImage=string}
// @Failure 404 {object} services.ErrorResponse
// @Router /students/{studentId}/qr [get]
func (h *CardHandler) GetLoginCard(w http.ResponseWriter, r *http.Request) {
	studentID, err := strconv.Atoi(chi.URLParam(r, "studentId"))
	if err != nil {
		services.SendErrorResponse(w, "Invalid student id", http.StatusBadRequest, nil)
		return
	}

	cardImage, err := h.service.GenerateLoginCard(r.Context(), studentID)
	if err != nil {
		if errors.Is(err, services.ErrStudentNotFound) {
			services.SendErrorResponse(w, "Student not found", http.StatusNotFound, nil)
			return
		}
		services.SendErrorResponse(w, "Failed to generate card", http.StatusInternalServerError, nil)
		return
	}

	services.SendJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"cardImage": cardImage,
	})
}
