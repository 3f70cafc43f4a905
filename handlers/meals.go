package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"daily-diet/diet"
	"daily-diet/middleware"
	"daily-diet/models"
	"daily-diet/store"
	"daily-diet/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type MealRepository interface {
	Create(ctx context.Context, m *models.Meal) error
	ListByUser(ctx context.Context, userID string) ([]models.Meal, error)
	GetForUser(ctx context.Context, id, userID string) (*models.Meal, error)
	Update(ctx context.Context, m *models.Meal) error
	DeleteForUser(ctx context.Context, id, userID string) error
}

type MealHandler struct {
	meals  MealRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewMealHandler(meals MealRepository, logger *slog.Logger) *MealHandler {
	return &MealHandler{meals: meals, logger: logger, now: time.Now}
}

type createMealRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description" validate:"required"`
	Date        string  `json:"date" validate:"required"`
	IsInDiet    *bool   `json:"isInDiet" validate:"required"`
}

// updateMealRequest fields are optional; nil keeps the stored value.
type updateMealRequest struct {
	Name        *string `json:"name" validate:"omitnil,max=255"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
	IsInDiet    *bool   `json:"isInDiet"`
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseMealDate accepts ISO 8601 dates and date-times. Values without an
// offset are read as UTC.
func parseMealDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func invalidDate(w http.ResponseWriter) {
	writeError(w, http.StatusBadRequest, "Invalid date format")
}

func mealNotFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "Meal not found")
}

// mealID reads the {id} route parameter in canonical UUID form.
func mealID(r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.UserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return userID, true
}

func (h *MealHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req createMealRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeRequestError(w, err)
		return
	}
	date, ok := parseMealDate(req.Date)
	if !ok {
		invalidDate(w)
		return
	}

	now := h.now().UTC()
	meal := &models.Meal{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: *req.Description,
		Date:        date,
		IsInDiet:    *req.IsInDiet,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.meals.Create(r.Context(), meal); err != nil {
		serverError(w, r, h.logger, "create meal", err)
		return
	}

	telemetry.RecordMealCreated()
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "Meal created",
		"id":      meal.ID,
	})
}

func (h *MealHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	meals, err := h.meals.ListByUser(r.Context(), userID)
	if err != nil {
		serverError(w, r, h.logger, "list meals", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"meals": meals})
}

func (h *MealHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := mealID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid meal id")
		return
	}

	meal, err := h.meals.GetForUser(r.Context(), id, userID)
	if errors.Is(err, store.ErrNotFound) {
		mealNotFound(w)
		return
	}
	if err != nil {
		serverError(w, r, h.logger, "get meal", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"meal": meal})
}

func (h *MealHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := mealID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid meal id")
		return
	}

	var req updateMealRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeRequestError(w, err)
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		writeRequestError(w, &requestError{msg: "Invalid request body", details: []string{"name must not be empty"}})
		return
	}
	var date time.Time
	if req.Date != nil {
		if date, ok = parseMealDate(*req.Date); !ok {
			invalidDate(w)
			return
		}
	}

	meal, err := h.meals.GetForUser(r.Context(), id, userID)
	if errors.Is(err, store.ErrNotFound) {
		mealNotFound(w)
		return
	}
	if err != nil {
		serverError(w, r, h.logger, "get meal", err)
		return
	}

	if req.Name != nil {
		meal.Name = *req.Name
	}
	if req.Description != nil {
		meal.Description = *req.Description
	}
	if req.Date != nil {
		meal.Date = date
	}
	if req.IsInDiet != nil {
		meal.IsInDiet = *req.IsInDiet
	}
	meal.UpdatedAt = h.now().UTC()

	if err := h.meals.Update(r.Context(), meal); err != nil {
		serverError(w, r, h.logger, "update meal", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Meal updated"})
}

func (h *MealHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := mealID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid meal id")
		return
	}

	err := h.meals.DeleteForUser(r.Context(), id, userID)
	if errors.Is(err, store.ErrNotFound) {
		mealNotFound(w)
		return
	}
	if err != nil {
		serverError(w, r, h.logger, "delete meal", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Meal deleted"})
}

func (h *MealHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	meals, err := h.meals.ListByUser(r.Context(), userID)
	if err != nil {
		serverError(w, r, h.logger, "load meals for metrics", err)
		return
	}
	writeJSON(w, http.StatusOK, diet.Summarize(meals))
}
