package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// Endpoint paths, relative to the base URL.
const (
	PathIsLoggedIn      = "api/is_logged_in/"
	PathIsAdmin         = "api/is_admin/"
	PathCSRFToken       = "/api/get-csrf-token/"
	PathLogin           = "api/login/"
	PathLogout          = "api/logout/"
	PathRegister        = "api/register/"
	PathChangePassword  = "api/change-password/"
	PathAllModels       = "api/models/all-models/"
	PathActiveModel     = "api/models/active-model/"
	PathAllRequests     = "api/get-all-requests/"
	PathMyRequests      = "api/get-requests-by-username/"
	PathCreateRequest   = "api/create-request/"
	PathRetrain         = "api/retrain/"
	PathTotalDataPoints = "api/get-total-datapoints/"
	PathAllUsers        = "api/get-all-users/"
	pathSwapModelFmt    = "api/models/swap-model/%s/"
	pathDeleteModelFmt  = "api/models/delete-model/%s/"
	pathSpecificReqFmt  = "api/get-specific-request/%d/"
	pathDeleteUserFmt   = "api/delete-user/%s/"
)

// IsLoggedIn asks the backend whether the current session is authenticated.
//
// The backend answers 401 for anonymous sessions, which surfaces as a
// *StatusError; callers that want a plain boolean should check IsUnauthorized.
func (c *Client) IsLoggedIn(ctx context.Context) (SessionStatus, error) {
	var raw struct {
		LoggedIn *bool  `json:"is_logged_in"`
		Username string `json:"username"`
	}
	if err := c.do(ctx, http.MethodGet, PathIsLoggedIn, "is_logged_in", nil, &raw); err != nil {
		return SessionStatus{}, err
	}
	if raw.LoggedIn == nil {
		return SessionStatus{}, fmt.Errorf("%w: is_logged_in missing", ErrMalformedResponse)
	}
	return SessionStatus{LoggedIn: *raw.LoggedIn, Username: raw.Username}, nil
}

// IsAdmin asks the backend whether the current session belongs to an admin.
func (c *Client) IsAdmin(ctx context.Context) (AdminStatus, error) {
	var raw struct {
		Admin *bool `json:"is_admin"`
	}
	if err := c.do(ctx, http.MethodGet, PathIsAdmin, "is_admin", nil, &raw); err != nil {
		return AdminStatus{}, err
	}
	if raw.Admin == nil {
		return AdminStatus{}, fmt.Errorf("%w: is_admin missing", ErrMalformedResponse)
	}
	return AdminStatus{Admin: *raw.Admin}, nil
}

// RequestCSRFCookie calls the token-issuing endpoint. The token itself
// arrives as a csrftoken cookie in the jar; the returned string is the
// backend's message.
func (c *Client) RequestCSRFCookie(ctx context.Context) (string, error) {
	var raw struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodGet, PathCSRFToken, "get_csrf_token", nil, &raw); err != nil {
		return "", err
	}
	return raw.Message, nil
}

// Login authenticates and starts a session. It returns the canonical username.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	in := map[string]string{"username": username, "password": password}
	var raw struct {
		Username string `json:"username"`
	}
	if err := c.do(ctx, http.MethodPost, PathLogin, "login", in, &raw); err != nil {
		return "", err
	}
	return raw.Username, nil
}

// Logout ends the session. The backend also deletes the csrftoken cookie.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, PathLogout, "logout", nil, nil)
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, reg Registration) error {
	return c.do(ctx, http.MethodPost, PathRegister, "register", reg, nil)
}

// ChangePassword replaces the current user's password.
func (c *Client) ChangePassword(ctx context.Context, newPassword string) error {
	in := map[string]string{"new_password": newPassword}
	return c.do(ctx, http.MethodPost, PathChangePassword, "change_password", in, nil)
}

// AllModels lists every trained model. Admin only.
func (c *Client) AllModels(ctx context.Context) ([]Model, error) {
	var raw struct {
		Models []Model `json:"models"`
	}
	if err := c.do(ctx, http.MethodGet, PathAllModels, "all_models", nil, &raw); err != nil {
		return nil, err
	}
	if raw.Models == nil {
		raw.Models = []Model{}
	}
	return raw.Models, nil
}

// ActiveModel returns the model currently serving predictions, or nil when
// none is active. Admin only.
func (c *Client) ActiveModel(ctx context.Context) (*Model, error) {
	var m Model
	err := c.do(ctx, http.MethodGet, PathActiveModel, "active_model", nil, &m)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SwapModel makes version the active model. Admin only.
func (c *Client) SwapModel(ctx context.Context, version Version) error {
	path := fmt.Sprintf(pathSwapModelFmt, url.PathEscape(string(version)))
	return c.do(ctx, http.MethodPut, path, "swap_model", nil, nil)
}

// DeleteModel removes version. Admin only.
func (c *Client) DeleteModel(ctx context.Context, version Version) error {
	path := fmt.Sprintf(pathDeleteModelFmt, url.PathEscape(string(version)))
	return c.do(ctx, http.MethodDelete, path, "delete_model", nil, nil)
}

// AllRequests lists every classification request.
func (c *Client) AllRequests(ctx context.Context) ([]UserRequest, error) {
	return c.listRequests(ctx, PathAllRequests, "all_requests")
}

// MyRequests lists the current user's classification requests.
func (c *Client) MyRequests(ctx context.Context) ([]UserRequest, error) {
	return c.listRequests(ctx, PathMyRequests, "requests_by_username")
}

func (c *Client) listRequests(ctx context.Context, path, endpoint string) ([]UserRequest, error) {
	var raw struct {
		Requests []UserRequest `json:"requests"`
	}
	if err := c.do(ctx, http.MethodGet, path, endpoint, nil, &raw); err != nil {
		return nil, err
	}
	if raw.Requests == nil {
		raw.Requests = []UserRequest{}
	}
	return raw.Requests, nil
}

// Request fetches one request with its explanation artifacts.
func (c *Client) Request(ctx context.Context, id int) (RequestDetail, error) {
	var raw struct {
		Request *RequestDetail `json:"request"`
	}
	path := fmt.Sprintf(pathSpecificReqFmt, id)
	if err := c.do(ctx, http.MethodGet, path, "specific_request", nil, &raw); err != nil {
		return RequestDetail{}, err
	}
	if raw.Request == nil {
		return RequestDetail{}, fmt.Errorf("%w: request missing", ErrMalformedResponse)
	}
	return *raw.Request, nil
}

// CreateRequest submits an image for classification and returns the new
// request id. The result is computed asynchronously by the backend.
func (c *Client) CreateRequest(ctx context.Context, localization string, image []byte) (int, error) {
	in := map[string]any{
		"localization": localization,
		"image":        image, // base64 on the wire
	}
	var raw struct {
		RequestID *int `json:"request_id"`
	}
	if err := c.do(ctx, http.MethodPost, PathCreateRequest, "create_request", in, &raw); err != nil {
		return 0, err
	}
	if raw.RequestID == nil {
		return 0, fmt.Errorf("%w: request_id missing", ErrMalformedResponse)
	}
	return *raw.RequestID, nil
}

// Retrain starts a training job with payload and returns its job id. Admin only.
func (c *Client) Retrain(ctx context.Context, payload map[string]any) (string, error) {
	var raw struct {
		JobID string `json:"job_id"`
	}
	if err := c.do(ctx, http.MethodPost, PathRetrain, "retrain", payload, &raw); err != nil {
		return "", err
	}
	if raw.JobID == "" {
		return "", fmt.Errorf("%w: job_id missing", ErrMalformedResponse)
	}
	return raw.JobID, nil
}

// TrainingJobs lists retraining jobs. Admin only.
func (c *Client) TrainingJobs(ctx context.Context) ([]TrainingJob, error) {
	var raw struct {
		Jobs []TrainingJob `json:"jobs"`
	}
	if err := c.do(ctx, http.MethodGet, PathRetrain, "training_jobs", nil, &raw); err != nil {
		return nil, err
	}
	if raw.Jobs == nil {
		raw.Jobs = []TrainingJob{}
	}
	return raw.Jobs, nil
}

// DeleteCompletedJobs drops finished jobs from the backend's list. Admin only.
func (c *Client) DeleteCompletedJobs(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, PathRetrain, "delete_jobs", nil, nil)
}

// TotalDataPoints returns the size of the training image set. Admin only.
func (c *Client) TotalDataPoints(ctx context.Context) (int, error) {
	var raw struct {
		Total *int `json:"total_data_points"`
	}
	if err := c.do(ctx, http.MethodGet, PathTotalDataPoints, "total_datapoints", nil, &raw); err != nil {
		return 0, err
	}
	if raw.Total == nil {
		return 0, fmt.Errorf("%w: total_data_points missing", ErrMalformedResponse)
	}
	return *raw.Total, nil
}

// AllUsers lists every account.
func (c *Client) AllUsers(ctx context.Context) ([]User, error) {
	var raw struct {
		Users []User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, PathAllUsers, "all_users", nil, &raw); err != nil {
		return nil, err
	}
	if raw.Users == nil {
		raw.Users = []User{}
	}
	return raw.Users, nil
}

// DeleteUser removes an account. Admin only; admins cannot delete themselves.
func (c *Client) DeleteUser(ctx context.Context, username string) error {
	path := fmt.Sprintf(pathDeleteUserFmt, url.PathEscape(username))
	return c.do(ctx, http.MethodDelete, path, "delete_user", nil, nil)
}

