package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskvault/internal/common"
	"github.com/dmitrijs2005/taskvault/internal/logging"
	"github.com/dmitrijs2005/taskvault/internal/models"
	"github.com/dmitrijs2005/taskvault/internal/server/auth"
	"github.com/dmitrijs2005/taskvault/internal/server/services"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testSecret = []byte("test-secret")

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (nopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Error(ctx context.Context, msg string, args ...any) {}
func (l nopLogger) With(args ...any) logging.Logger                  { return l }

type stubUserService struct {
	registerErr error
	loginPair   *services.TokenPair
	loginErr    error
	refreshPair *services.TokenPair
	refreshErr  error
	logoutErr   error
	lastEmail   string
}

func (s *stubUserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	s.lastEmail = email
	return &models.User{ID: "u-1", Email: email}, nil
}

func (s *stubUserService) Login(ctx context.Context, email, password string) (*services.TokenPair, error) {
	return s.loginPair, s.loginErr
}

func (s *stubUserService) RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	return s.refreshPair, s.refreshErr
}

func (s *stubUserService) Logout(ctx context.Context, refreshToken string) error {
	return s.logoutErr
}

type stubTaskService struct {
	tasks     []models.Task
	task      *models.Task
	err       error
	lastPatch models.TaskPatch
	lastCall  string
}

func (s *stubTaskService) List(ctx context.Context, userID string) ([]models.Task, error) {
	s.lastCall = "List"
	return s.tasks, s.err
}
func (s *stubTaskService) Create(ctx context.Context, userID string, task models.Task) (*models.Task, error) {
	s.lastCall = "Create"
	if s.err != nil {
		return nil, s.err
	}
	task.ID = "t-created"
	task.UserID = userID
	return &task, nil
}
func (s *stubTaskService) Get(ctx context.Context, userID, id string) (*models.Task, error) {
	s.lastCall = "Get"
	return s.task, s.err
}
func (s *stubTaskService) Update(ctx context.Context, userID, id string, patch models.TaskPatch) (*models.Task, error) {
	s.lastCall = "Update"
	s.lastPatch = patch
	return s.task, s.err
}
func (s *stubTaskService) Delete(ctx context.Context, userID, id string) error {
	s.lastCall = "Delete"
	return s.err
}
func (s *stubTaskService) SetStatus(ctx context.Context, userID, id string, status models.Status) (*models.Task, error) {
	s.lastCall = "SetStatus"
	return s.task, s.err
}
func (s *stubTaskService) SetStarred(ctx context.Context, userID, id string, starred bool) (*models.Task, error) {
	s.lastCall = "SetStarred"
	return s.task, s.err
}
func (s *stubTaskService) UploadAttachment(ctx context.Context, userID, taskID, name, contentType string, size int64, body io.Reader) (*models.Task, error) {
	s.lastCall = "UploadAttachment"
	return s.task, s.err
}
func (s *stubTaskService) RemoveAttachment(ctx context.Context, userID, taskID, attachmentID string) (*models.Task, error) {
	s.lastCall = "RemoveAttachment"
	return s.task, s.err
}

type stubHub struct {
	ch  chan []models.Task
	err error
}

func (h *stubHub) Subscribe(ctx context.Context, userID string) (<-chan []models.Task, func(), error) {
	if h.err != nil {
		return nil, nil, h.err
	}
	return h.ch, func() {}, nil
}

func newTestRouter(users UserService, tasks TaskService, hub SnapshotHub) *gin.Engine {
	return NewHandler(users, tasks, hub, testSecret, nopLogger{}).Router()
}

func bearerFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	return "Bearer " + token
}

func doJSON(t *testing.T, r http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&stubUserService{}, &stubTaskService{}, &stubHub{})
	w := doJSON(t, r, http.MethodGet, "/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRegister_Success(t *testing.T) {
	users := &stubUserService{}
	r := newTestRouter(users, &stubTaskService{}, &stubHub{})

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register",
		`{"email":"a@b.cc","password":"Str0ng!pass"}`, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if users.lastEmail != "a@b.cc" {
		t.Errorf("service saw email %q", users.lastEmail)
	}
}

func TestRegister_RejectsBadEmailAndWeakPassword(t *testing.T) {
	r := newTestRouter(&stubUserService{}, &stubTaskService{}, &stubHub{})

	cases := []string{
		`{"email":"not-an-email","password":"Str0ng!pass"}`,
		`{"email":"a@b.cc","password":"short1!"}`,
		`{"email":"a@b.cc","password":"alllowercase1!"}`,
		`{"email":"a@b.cc","password":"NoDigitsHere!"}`,
	}
	for _, body := range cases {
		w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", body, "")
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("body %s: status = %d", body, w.Code)
		}
	}
}

func TestLogin_ReturnsPair(t *testing.T) {
	users := &stubUserService{loginPair: &services.TokenPair{AccessToken: "at", RefreshToken: "rt"}}
	r := newTestRouter(users, &stubTaskService{}, &stubHub{})

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login",
		`{"email":"a@b.cc","password":"x"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp tokenPairResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AccessToken != "at" || resp.RefreshToken != "rt" {
		t.Errorf("pair = %+v", resp)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	users := &stubUserService{loginErr: common.ErrorUnauthenticated}
	r := newTestRouter(users, &stubTaskService{}, &stubHub{})

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login",
		`{"email":"a@b.cc","password":"wrong"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRefresh_ExpiredToken(t *testing.T) {
	users := &stubUserService{refreshErr: common.ErrRefreshTokenExpired}
	r := newTestRouter(users, &stubTaskService{}, &stubHub{})

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/refresh", `{"refreshToken":"stale"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestLogout_NoContent(t *testing.T) {
	r := newTestRouter(&stubUserService{}, &stubTaskService{}, &stubHub{})
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/logout", `{"refreshToken":"tok"}`, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestOAuthGoogle_NotImplemented(t *testing.T) {
	r := newTestRouter(&stubUserService{}, &stubTaskService{}, &stubHub{})
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/oauth/google", "", "")
	if w.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestTasks_RequireBearer(t *testing.T) {
	r := newTestRouter(&stubUserService{}, &stubTaskService{}, &stubHub{})

	w := doJSON(t, r, http.MethodGet, "/api/v1/tasks", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no header: status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/tasks", "", "Bearer garbage")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status = %d", w.Code)
	}
}

func TestTasks_ExpiredTokenIs401(t *testing.T) {
	r := newTestRouter(&stubUserService{}, &stubTaskService{}, &stubHub{})
	token, _ := auth.GenerateToken("u-1", testSecret, -time.Minute)

	w := doJSON(t, r, http.MethodGet, "/api/v1/tasks", "", "Bearer "+token)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestListTasks_GroupsAndSorts(t *testing.T) {
	now := time.Now()
	// local noon is inside today's window whatever the wall clock says
	today := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, now.Location())
	tasks := &stubTaskService{tasks: []models.Task{
		{ID: "dateless", Status: models.StatusIncomplete},
		{ID: "due-today", DueDate: &today, Status: models.StatusIncomplete},
	}}
	r := newTestRouter(&stubUserService{}, tasks, &stubHub{})

	w := doJSON(t, r, http.MethodGet, "/api/v1/tasks?group=today", "", bearerFor(t, "u-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var got []models.Task
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ID != "due-today" {
		t.Fatalf("got %+v", got)
	}
}

func TestListTasks_UnknownGroupIs422(t *testing.T) {
	r := newTestRouter(&stubUserService{}, &stubTaskService{}, &stubHub{})
	w := doJSON(t, r, http.MethodGet, "/api/v1/tasks?group=someday", "", bearerFor(t, "u-1"))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestCreateTask_Validation(t *testing.T) {
	r := newTestRouter(&stubUserService{}, &stubTaskService{}, &stubHub{})
	bearer := bearerFor(t, "u-1")

	w := doJSON(t, r, http.MethodPost, "/api/v1/tasks", `{"title":""}`, bearer)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty title: status = %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/api/v1/tasks", `{"title":"x","priority":"urgent"}`, bearer)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad priority: status = %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/api/v1/tasks", `{"title":"x","color":"mauve"}`, bearer)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad color: status = %d", w.Code)
	}
}

func TestCreateTask_Success(t *testing.T) {
	tasks := &stubTaskService{}
	r := newTestRouter(&stubUserService{}, tasks, &stubHub{})

	w := doJSON(t, r, http.MethodPost, "/api/v1/tasks",
		`{"title":"buy milk","priority":"high","dueDate":"2024-06-15T10:00:00Z"}`, bearerFor(t, "u-1"))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var got models.Task
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Title != "buy milk" || got.Priority != models.PriorityHigh || got.DueDate == nil {
		t.Errorf("task = %+v", got)
	}
}

func TestUpdateTask_PassesPatchThrough(t *testing.T) {
	tasks := &stubTaskService{task: &models.Task{ID: "t-1"}}
	r := newTestRouter(&stubUserService{}, tasks, &stubHub{})

	w := doJSON(t, r, http.MethodPatch, "/api/v1/tasks/t-1",
		`{"title":"renamed","clearDueDate":true}`, bearerFor(t, "u-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if tasks.lastPatch.Title == nil || *tasks.lastPatch.Title != "renamed" {
		t.Errorf("patch title = %v", tasks.lastPatch.Title)
	}
	if !tasks.lastPatch.ClearDueDate {
		t.Error("ClearDueDate not forwarded")
	}
}

func TestDeleteTask_NotFound(t *testing.T) {
	tasks := &stubTaskService{err: common.ErrorNotFound}
	r := newTestRouter(&stubUserService{}, tasks, &stubHub{})

	w := doJSON(t, r, http.MethodDelete, "/api/v1/tasks/ghost", "", bearerFor(t, "u-1"))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestSetStatus_RejectsUnknownValue(t *testing.T) {
	r := newTestRouter(&stubUserService{}, &stubTaskService{task: &models.Task{}}, &stubHub{})
	w := doJSON(t, r, http.MethodPut, "/api/v1/tasks/t-1/status",
		`{"status":"in-progress"}`, bearerFor(t, "u-1"))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestSetStarred_Success(t *testing.T) {
	tasks := &stubTaskService{task: &models.Task{ID: "t-1", IsStarred: true}}
	r := newTestRouter(&stubUserService{}, tasks, &stubHub{})

	w := doJSON(t, r, http.MethodPut, "/api/v1/tasks/t-1/star",
		`{"isStarred":true}`, bearerFor(t, "u-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if tasks.lastCall != "SetStarred" {
		t.Errorf("lastCall = %q", tasks.lastCall)
	}
}

func TestStorageFailureIs502(t *testing.T) {
	tasks := &stubTaskService{err: common.ErrorTransport}
	r := newTestRouter(&stubUserService{}, tasks, &stubHub{})

	w := doJSON(t, r, http.MethodDelete, "/api/v1/tasks/t-1/attachments/a-1", "", bearerFor(t, "u-1"))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestUploadAttachment_Multipart(t *testing.T) {
	tasks := &stubTaskService{task: &models.Task{ID: "t-1"}}
	r := newTestRouter(&stubUserService{}, tasks, &stubHub{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "report.pdf")
	fw.Write([]byte("%PDF"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks/t-1/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", bearerFor(t, "u-1"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if tasks.lastCall != "UploadAttachment" {
		t.Errorf("lastCall = %q", tasks.lastCall)
	}
}

func TestUploadAttachment_MissingFileIs422(t *testing.T) {
	r := newTestRouter(&stubUserService{}, &stubTaskService{}, &stubHub{})
	w := doJSON(t, r, http.MethodPost, "/api/v1/tasks/t-1/attachments", "", bearerFor(t, "u-1"))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestStream_SendsSnapshotEvents(t *testing.T) {
	ch := make(chan []models.Task, 1)
	ch <- []models.Task{{ID: "t-1"}}
	hub := &stubHub{ch: ch}
	r := newTestRouter(&stubUserService{}, &stubTaskService{}, hub)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks/stream", nil).WithContext(ctx)
	req.Header.Set("Authorization", bearerFor(t, "u-1"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "event:snapshot") {
		t.Errorf("no snapshot event in %q", body)
	}
	if !strings.Contains(body, `\"id\":\"t-1\"`) && !strings.Contains(body, `"id":"t-1"`) {
		t.Errorf("snapshot payload missing task: %q", body)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("content type = %q", ct)
	}
}

func TestStream_SubscribeFailure(t *testing.T) {
	hub := &stubHub{err: common.ErrorTransport}
	r := newTestRouter(&stubUserService{}, &stubTaskService{}, hub)

	w := doJSON(t, r, http.MethodGet, "/api/v1/tasks/stream", "", bearerFor(t, "u-1"))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", w.Code)
	}
}
