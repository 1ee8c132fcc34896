package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/viper"
	"github.com/zfogg/screams/backend/internal/models"
)

// apiClient calls the Screams HTTP API
type apiClient struct {
	http *resty.Client
}

func newAPIClient(baseURL, token string, timeout time.Duration) *apiClient {
	c := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("User-Agent", "Screams-CLI/0.1.0")
	if token != "" {
		c.SetAuthToken(token)
	}
	return &apiClient{http: c}
}

// client builds an apiClient from the loaded config
func client() *apiClient {
	return newAPIClient(
		viper.GetString("api.base_url"),
		viper.GetString("auth.token"),
		time.Duration(viper.GetInt("api.timeout"))*time.Second,
	)
}

// apiError is a non-2xx response. The server answers either {"error": "..."} or one
// message per invalid field.
type apiError struct {
	Status int
	Fields map[string]string
}

func (e *apiError) Error() string {
	if msg, ok := e.Fields["error"]; ok {
		return msg
	}
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status))
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, ", ")
}

func (c *apiClient) do(req *resty.Request, method, path string, result any) error {
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return decodeError(resp)
	}
	return nil
}

func decodeError(resp *resty.Response) error {
	apiErr := &apiError{Status: resp.StatusCode(), Fields: map[string]string{}}
	var raw map[string]any
	if json.Unmarshal(resp.Body(), &raw) == nil {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				apiErr.Fields[k] = s
			}
		}
	}
	delete(apiErr.Fields, "code")
	return apiErr
}

type message struct {
	Message string `json:"message"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type mailResponse struct {
	Success bool    `json:"success"`
	Err     *string `json:"err"`
}

type screamWithComments struct {
	models.Scream
	Comments []models.Comment `json:"comments"`
}

type authenticatedUser struct {
	Credentials   models.User           `json:"credentials"`
	Likes         []models.Like         `json:"likes"`
	Notifications []models.Notification `json:"notifications"`
}

type userProfile struct {
	User    models.User     `json:"user"`
	Screams []models.Scream `json:"screams"`
}

// ============================================================================
// ACCOUNT
// ============================================================================

func (c *apiClient) Login(email, password string) (string, error) {
	var out tokenResponse
	err := c.do(c.http.R().SetBody(map[string]string{"email": email, "password": password}), http.MethodPost, "/login", &out)
	return out.Token, err
}

func (c *apiClient) Signup(email, password, handle string) (string, error) {
	var out tokenResponse
	body := map[string]string{
		"email":           email,
		"password":        password,
		"confirmPassword": password,
		"handle":          handle,
	}
	err := c.do(c.http.R().SetBody(body), http.MethodPost, "/signup", &out)
	return out.Token, err
}

func (c *apiClient) ResetPassword(email string) (*mailResponse, error) {
	var out mailResponse
	err := c.do(c.http.R().SetBody(map[string]string{"email": email}), http.MethodPost, "/resetPassword", &out)
	return &out, err
}

func (c *apiClient) ResendVerification() (*mailResponse, error) {
	var out mailResponse
	err := c.do(c.http.R(), http.MethodPost, "/resendVerificationMail", &out)
	return &out, err
}

// ============================================================================
// SCREAMS
// ============================================================================

func (c *apiClient) ListScreams() ([]models.Scream, error) {
	var out []models.Scream
	err := c.do(c.http.R(), http.MethodGet, "/screams", &out)
	return out, err
}

func (c *apiClient) PostScream(body string) (*models.Scream, error) {
	var out models.Scream
	err := c.do(c.http.R().SetBody(map[string]string{"body": body}), http.MethodPost, "/scream", &out)
	return &out, err
}

func (c *apiClient) GetScream(id string) (*screamWithComments, error) {
	var out screamWithComments
	err := c.do(c.http.R().SetPathParam("id", id), http.MethodGet, "/scream/{id}", &out)
	return &out, err
}

func (c *apiClient) DeleteScream(id string) (string, error) {
	var out message
	err := c.do(c.http.R().SetPathParam("id", id), http.MethodDelete, "/scream/{id}", &out)
	return out.Message, err
}

func (c *apiClient) Comment(id, body string) (*models.Comment, error) {
	var out models.Comment
	req := c.http.R().SetPathParam("id", id).SetBody(map[string]string{"body": body})
	err := c.do(req, http.MethodPost, "/scream/{id}/comment", &out)
	return &out, err
}

func (c *apiClient) Like(id string) (*models.Scream, error) {
	var out models.Scream
	err := c.do(c.http.R().SetPathParam("id", id), http.MethodGet, "/scream/{id}/like", &out)
	return &out, err
}

func (c *apiClient) Unlike(id string) (*models.Scream, error) {
	var out models.Scream
	err := c.do(c.http.R().SetPathParam("id", id), http.MethodGet, "/scream/{id}/unlike", &out)
	return &out, err
}

// ============================================================================
// USERS
// ============================================================================

func (c *apiClient) Me() (*authenticatedUser, error) {
	var out authenticatedUser
	err := c.do(c.http.R(), http.MethodGet, "/user", &out)
	return &out, err
}

func (c *apiClient) User(handle string) (*userProfile, error) {
	var out userProfile
	err := c.do(c.http.R().SetPathParam("handle", handle), http.MethodGet, "/user/{handle}", &out)
	return &out, err
}

func (c *apiClient) UpdateDetails(details models.UserDetails) (string, error) {
	var out message
	err := c.do(c.http.R().SetBody(details), http.MethodPost, "/user", &out)
	return out.Message, err
}

func (c *apiClient) UploadImage(filename, contentType string, r io.Reader) (string, error) {
	var out message
	req := c.http.R().SetMultipartField("image", filename, contentType, r)
	err := c.do(req, http.MethodPost, "/user/image", &out)
	return out.Message, err
}

func (c *apiClient) MarkNotificationsRead(ids []string) (string, error) {
	var out message
	err := c.do(c.http.R().SetBody(ids), http.MethodPost, "/notifications", &out)
	return out.Message, err
}
