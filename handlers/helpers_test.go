package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"daily-diet/db"
	"daily-diet/logging"
	"daily-diet/middleware"
	"daily-diet/models"
	"daily-diet/session"
	"daily-diet/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	users *store.UserStore
	meals *store.MealStore
	codec *session.Codec
	uh    *UserHandler
	mh    *MealHandler
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn, err := db.Open(context.Background(), db.DriverSQLite, ":memory:", logging.Discard())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	codec, err := session.NewCodec([]byte("handlers-test-secret"), 7*24*time.Hour)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}

	env := &testEnv{
		users: store.NewUserStore(conn),
		meals: store.NewMealStore(conn),
		codec: codec,
	}
	env.uh, err = NewUserHandler(env.users, codec, logging.Discard(), UserOptions{
		BcryptCost:   bcrypt.MinCost,
		CookieSecure: true,
	})
	if err != nil {
		t.Fatalf("new user handler: %v", err)
	}
	env.mh = NewMealHandler(env.meals, logging.Discard())
	return env
}

func (e *testEnv) createUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Name:         "John Doe",
		Email:        email,
		PasswordHash: string(hash),
		Age:          30,
		CreatedAt:    time.Now().UTC(),
	}
	if err := e.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (e *testEnv) createMeal(t *testing.T, userID string, date time.Time, inDiet bool) *models.Meal {
	t.Helper()
	now := time.Now().UTC()
	m := &models.Meal{
		ID:          uuid.NewString(),
		Name:        "Banana",
		Description: "Banana",
		Date:        date,
		IsInDiet:    inDiet,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.meals.Create(context.Background(), m); err != nil {
		t.Fatalf("create meal: %v", err)
	}
	return m
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// asUser attaches an authenticated session for userID, as RequireAuth would.
func asUser(req *http.Request, userID string) *http.Request {
	tok := session.Token{SessionID: uuid.NewString(), UserID: userID}
	return req.WithContext(middleware.WithSession(req.Context(), tok))
}

func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return body
}
