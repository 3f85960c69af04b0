package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type stubAuth struct {
	token  string
	userID uuid.UUID
}

func (s stubAuth) Authenticate(_ context.Context, token string) (uuid.UUID, error) {
	if token != s.token {
		return uuid.Nil, errors.New("bad token")
	}
	return s.userID, nil
}

func TestAuthRequired(t *testing.T) {
	userID := uuid.New()
	app := fiber.New()
	app.Get("/me", AuthRequired(stubAuth{token: "good", userID: userID}), func(c *fiber.Ctx) error {
		return c.SendString(GetUserID(c).String())
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic good", fiber.StatusUnauthorized},
		{"empty token", "Bearer ", fiber.StatusUnauthorized},
		{"rejected token", "Bearer bad", fiber.StatusUnauthorized},
		{"valid token", "Bearer good", fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.status != fiber.StatusOK {
				var body map[string]string
				if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if body["error"] == "" {
					t.Error("expected error message")
				}
			}
		})
	}
}

func TestGetUserIDWithoutLocals(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		if GetUserID(c) != uuid.Nil {
			t.Error("expected uuid.Nil")
		}
		return nil
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
}
