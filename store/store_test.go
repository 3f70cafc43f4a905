package store

import (
	"context"
	"testing"
	"time"

	"daily-diet/db"
	"daily-diet/logging"
	"daily-diet/models"

	"github.com/google/uuid"
)

func setupTestDB(t *testing.T) (*UserStore, *MealStore) {
	t.Helper()
	conn, err := db.Open(context.Background(), db.DriverSQLite, ":memory:", logging.Discard())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewUserStore(conn), NewMealStore(conn)
}

func createTestUser(t *testing.T, us *UserStore, email string) *models.User {
	t.Helper()
	u := &models.User{
		ID:           uuid.NewString(),
		Name:         "John Doe",
		Email:        email,
		PasswordHash: "hash",
		Age:          30,
		CreatedAt:    time.Now().UTC(),
	}
	if err := us.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func newTestMeal(userID string, date time.Time, inDiet bool) *models.Meal {
	now := time.Now().UTC()
	return &models.Meal{
		ID:          uuid.NewString(),
		Name:        "Banana",
		Description: "A ripe banana",
		Date:        date,
		IsInDiet:    inDiet,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	us, _ := setupTestDB(t)

	u := createTestUser(t, us, "john@example.com")

	got, err := us.GetByEmail(ctx, "john@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != u.ID || got.Name != "John Doe" || got.Age != 30 || got.PasswordHash != "hash" {
		t.Errorf("got %+v, want %+v", got, u)
	}

	byID, err := us.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID.Email != u.Email {
		t.Errorf("email = %q, want %q", byID.Email, u.Email)
	}

	if _, err := us.GetByEmail(ctx, "nobody@example.com"); err != ErrNotFound {
		t.Errorf("unknown email: err = %v, want ErrNotFound", err)
	}
	if _, err := us.GetByID(ctx, uuid.NewString()); err != ErrNotFound {
		t.Errorf("unknown id: err = %v, want ErrNotFound", err)
	}
}

func TestUserStoreDuplicateEmail(t *testing.T) {
	us, _ := setupTestDB(t)
	createTestUser(t, us, "dup@example.com")

	dup := &models.User{
		ID:           uuid.NewString(),
		Name:         "Jane Doe",
		Email:        "dup@example.com",
		PasswordHash: "hash",
		Age:          25,
		CreatedAt:    time.Now().UTC(),
	}
	if err := us.Create(context.Background(), dup); err != ErrDuplicateEmail {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestMealCRUD(t *testing.T) {
	ctx := context.Background()
	us, ms := setupTestDB(t)
	owner := createTestUser(t, us, "owner@example.com")
	other := createTestUser(t, us, "other@example.com")

	date := time.Date(2023, 4, 4, 12, 30, 0, 0, time.UTC)
	meal := newTestMeal(owner.ID, date, true)

	// Create
	if err := ms.Create(ctx, meal); err != nil {
		t.Fatalf("create meal: %v", err)
	}

	// Get scoped to owner
	got, err := ms.GetForUser(ctx, meal.ID, owner.ID)
	if err != nil {
		t.Fatalf("get meal: %v", err)
	}
	if got.Name != "Banana" || got.Description != "A ripe banana" {
		t.Errorf("got %+v", got)
	}
	if !got.Date.Equal(date) {
		t.Errorf("date = %v, want %v", got.Date, date)
	}
	if !got.IsInDiet {
		t.Error("expected meal to be in diet")
	}

	// Another user cannot see it
	if _, err := ms.GetForUser(ctx, meal.ID, other.ID); err != ErrNotFound {
		t.Errorf("foreign get: err = %v, want ErrNotFound", err)
	}

	// Update
	got.Name = "Apple"
	got.IsInDiet = false
	got.UpdatedAt = time.Now().UTC()
	if err := ms.Update(ctx, got); err != nil {
		t.Fatalf("update meal: %v", err)
	}
	updated, err := ms.GetForUser(ctx, meal.ID, owner.ID)
	if err != nil {
		t.Fatalf("get updated meal: %v", err)
	}
	if updated.Name != "Apple" || updated.IsInDiet {
		t.Errorf("update not applied: %+v", updated)
	}
	if updated.Description != "A ripe banana" {
		t.Errorf("description = %q, want unchanged", updated.Description)
	}

	// Delete by another user is not found and leaves the meal
	if err := ms.DeleteForUser(ctx, meal.ID, other.ID); err != ErrNotFound {
		t.Errorf("foreign delete: err = %v, want ErrNotFound", err)
	}
	if _, err := ms.GetForUser(ctx, meal.ID, owner.ID); err != nil {
		t.Errorf("meal should survive foreign delete: %v", err)
	}

	// Delete by owner
	if err := ms.DeleteForUser(ctx, meal.ID, owner.ID); err != nil {
		t.Fatalf("delete meal: %v", err)
	}
	if _, err := ms.GetForUser(ctx, meal.ID, owner.ID); err != ErrNotFound {
		t.Errorf("deleted meal: err = %v, want ErrNotFound", err)
	}
	if err := ms.DeleteForUser(ctx, meal.ID, owner.ID); err != ErrNotFound {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestMealListByUser(t *testing.T) {
	ctx := context.Background()
	us, ms := setupTestDB(t)
	owner := createTestUser(t, us, "owner@example.com")
	other := createTestUser(t, us, "other@example.com")

	empty, err := ms.ListByUser(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", empty)
	}

	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	for _, offset := range []int{2, 0, 1} {
		m := newTestMeal(owner.ID, base.AddDate(0, 0, offset), offset%2 == 0)
		if err := ms.Create(ctx, m); err != nil {
			t.Fatalf("create meal: %v", err)
		}
	}
	if err := ms.Create(ctx, newTestMeal(other.ID, base, true)); err != nil {
		t.Fatalf("create foreign meal: %v", err)
	}

	meals, err := ms.ListByUser(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list meals: %v", err)
	}
	if len(meals) != 3 {
		t.Fatalf("len = %d, want 3", len(meals))
	}
	for i, m := range meals {
		if m.UserID != owner.ID {
			t.Errorf("meal %d owned by %s", i, m.UserID)
		}
		if want := base.AddDate(0, 0, i); !m.Date.Equal(want) {
			t.Errorf("meal %d date = %v, want %v", i, m.Date, want)
		}
	}
}

func TestMealRequiresExistingOwner(t *testing.T) {
	_, ms := setupTestDB(t)
	meal := newTestMeal(uuid.NewString(), time.Now().UTC(), true)
	if err := ms.Create(context.Background(), meal); err == nil {
		t.Fatal("expected foreign key violation for unknown owner")
	}
}
