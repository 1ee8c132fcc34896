package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/screams/backend/internal/models"
)

func testClient(t *testing.T, handler http.HandlerFunc) *apiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return newAPIClient(srv.URL+"/", "tok", 5*time.Second)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestLoginSendsCredentials(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/login", r.URL.Path)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.co", body["email"])
		writeJSON(w, http.StatusOK, `{"token":"id-token"}`)
	})

	token, err := c.Login("a@b.co", "secret")
	require.NoError(t, err)
	assert.Equal(t, "id-token", token)
}

func TestRequestsCarryBearerToken(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "/scream/s1/like", r.URL.Path)
		data, _ := json.Marshal(models.Scream{ID: "s1", LikeCount: 3})
		writeJSON(w, http.StatusOK, string(data))
	})

	scream, err := c.Like("s1")
	require.NoError(t, err)
	assert.Equal(t, 3, scream.LikeCount)
}

func TestErrorBodies(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message", http.StatusBadRequest, `{"error":"Scream already liked","code":"BAD_REQUEST"}`, "Scream already liked"},
		{"fields", http.StatusBadRequest, `{"password":"Must not be empty","email":"Must be a valid email address"}`, "email: Must be a valid email address, password: Must not be empty"},
		{"empty", http.StatusBadGateway, ``, "502 Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := c.Like("s1")
			var apiErr *apiError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestUploadImageSendsPartContentType(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)

		assert.Equal(t, "me.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		assert.Equal(t, "png-bytes", string(data))

		writeJSON(w, http.StatusCreated, `{"message":"Image uploaded successfully"}`)
	})

	msg, err := c.UploadImage("me.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "Image uploaded successfully", msg)
}

func TestMarkNotificationsReadSendsArray(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var ids []string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&ids))
		assert.Equal(t, []string{"n1", "n2"}, ids)
		writeJSON(w, http.StatusOK, `{"message":"Notification marked read"}`)
	})

	msg, err := c.MarkNotificationsRead([]string{"n1", "n2"})
	require.NoError(t, err)
	assert.Equal(t, "Notification marked read", msg)
}
