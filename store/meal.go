package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"daily-diet/models"
)

type MealStore struct {
	db *sql.DB
}

func NewMealStore(db *sql.DB) *MealStore {
	return &MealStore{db: db}
}

const mealCols = `id, name, description, eaten_at, is_in_diet, user_id, created_at, updated_at`

func scanMeal(scanner interface{ Scan(...any) error }) (*models.Meal, error) {
	var m models.Meal
	err := scanner.Scan(
		&m.ID, &m.Name, &m.Description, &m.Date, &m.IsInDiet,
		&m.UserID, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MealStore) Create(ctx context.Context, m *models.Meal) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meals (`+mealCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Description, m.Date, m.IsInDiet, m.UserID, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert meal: %w", err)
	}
	return nil
}

// ListByUser returns every meal owned by userID, oldest first.
func (s *MealStore) ListByUser(ctx context.Context, userID string) ([]models.Meal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+mealCols+` FROM meals WHERE user_id = ? ORDER BY eaten_at ASC, created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	defer rows.Close()

	meals := []models.Meal{}
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meal: %w", err)
		}
		meals = append(meals, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meals: %w", err)
	}
	return meals, nil
}

// GetForUser returns the meal only when userID owns it. A meal owned by
// someone else is reported as ErrNotFound.
func (s *MealStore) GetForUser(ctx context.Context, id, userID string) (*models.Meal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+mealCols+` FROM meals WHERE id = ? AND user_id = ?`, id, userID)
	m, err := scanMeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get meal: %w", err)
	}
	return m, nil
}

// Update writes every mutable column of m, scoped to its owner.
func (s *MealStore) Update(ctx context.Context, m *models.Meal) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE meals SET name = ?, description = ?, eaten_at = ?, is_in_diet = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		m.Name, m.Description, m.Date, m.IsInDiet, m.UpdatedAt, m.ID, m.UserID,
	)
	if err != nil {
		return fmt.Errorf("update meal: %w", err)
	}
	return nil
}

func (s *MealStore) DeleteForUser(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM meals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete meal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete meal rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
