package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-session-client/api"
)

func grantResponse() map[string]any {
	return map[string]any{
		"access_token":  "access-1",
		"refresh_token": "refresh-1",
		"token_type":    "bearer",
		"user": map[string]string{
			"id":         "user-1",
			"email":      "parent@example.com",
			"first_name": "Jane",
			"last_name":  "Doe",
		},
	}
}

func TestLoginSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/token", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "parent@example.com", body["email"])

		json.NewEncoder(w).Encode(grantResponse())
	}))
	defer server.Close()

	client := api.NewAuthClient(server.URL)
	grant, err := client.Login(context.Background(), "parent@example.com", "password123")

	require.NoError(t, err)
	require.Equal(t, "access-1", grant.AccessToken)
	require.Equal(t, "refresh-1", grant.RefreshToken)
	require.Equal(t, "user-1", grant.User.ID)
}

func TestLoginBadCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Incorrect email or password"})
	}))
	defer server.Close()

	client := api.NewAuthClient(server.URL)
	_, err := client.Login(context.Background(), "parent@example.com", "nope")

	require.ErrorIs(t, err, api.ErrInvalidCredentials)
}

func TestLoginServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := api.NewAuthClient(server.URL)
	_, err := client.Login(context.Background(), "parent@example.com", "password123")

	require.ErrorIs(t, err, api.ErrServerUnavailable)
}

func TestLoginNetworkFailure(t *testing.T) {
	client := api.NewAuthClient("http://127.0.0.1:1")
	_, err := client.Login(context.Background(), "parent@example.com", "password123")

	require.ErrorIs(t, err, api.ErrNetwork)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/register", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Email already registered"})
	}))
	defer server.Close()

	client := api.NewAuthClient(server.URL)
	_, err := client.Register(context.Background(), api.Registration{
		Email:     "parent@example.com",
		Password:  "password123",
		FirstName: "Jane",
		LastName:  "Doe",
	})

	require.ErrorIs(t, err, api.ErrEmailAlreadyRegistered)
}

func TestRegisterFieldRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"detail": "password too weak"})
	}))
	defer server.Close()

	client := api.NewAuthClient(server.URL)
	_, err := client.Register(context.Background(), api.Registration{
		Email:     "parent@example.com",
		Password:  "pw",
		FirstName: "Jane",
		LastName:  "Doe",
	})

	var validationErr *api.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestMeValidatesToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/me", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"id":         "user-1",
			"email":      "parent@example.com",
			"first_name": "Jane",
			"last_name":  "Doe",
		})
	}))
	defer server.Close()

	client := api.NewAuthClient(server.URL)

	user, err := client.Me(context.Background(), "access-1")
	require.NoError(t, err)
	require.Equal(t, "user-1", user.ID)

	_, err = client.Me(context.Background(), "expired")
	require.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestRefreshRotatesAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/refresh", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		if r.URL.Query().Get("refresh_token") != "refresh-1" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid refresh token"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": "access-2",
			"token_type":   "bearer",
		})
	}))
	defer server.Close()

	client := api.NewAuthClient(server.URL)

	grant, err := client.Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)
	require.Equal(t, "access-2", grant.AccessToken)

	_, err = client.Refresh(context.Background(), "revoked")
	require.ErrorIs(t, err, api.ErrUnauthorized)
}
