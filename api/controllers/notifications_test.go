package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mathotech/autopartshub-backend/api/middleware"
	"github.com/mathotech/autopartshub-backend/internal/notifications"
	"github.com/mathotech/autopartshub-backend/pkg/db/models"
	"github.com/mathotech/autopartshub-backend/pkg/logger"
)

type testNotificationsService struct {
	listFn        func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error)
	markReadFn    func(ctx context.Context, userID, notificationID uuid.UUID) error
	markAllReadFn func(ctx context.Context, userID uuid.UUID) (int64, error)
}

func (s *testNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &notifications.ListResult{}, nil
}

func (s *testNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if s.markReadFn != nil {
		return s.markReadFn(ctx, userID, notificationID)
	}
	return nil
}

func (s *testNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if s.markAllReadFn != nil {
		return s.markAllReadFn(ctx, userID)
	}
	return 0, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func userRequest(method, target string, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestListNotificationsParsesQuery(t *testing.T) {
	userID := uuid.New()
	var gotParams notifications.ListParams
	svc := &testNotificationsService{
		listFn: func(_ context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
			gotParams = params
			return &notifications.ListResult{Items: []models.Notification{}, Cursor: ""}, nil
		},
	}

	req := userRequest(http.MethodGet, "/api/notifications?limit=5&unreadOnly=true&cursor=abc", userID)
	resp := httptest.NewRecorder()
	ListNotifications(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if gotParams.UserID != userID {
		t.Fatalf("unexpected user %s", gotParams.UserID)
	}
	if gotParams.Limit != 5 || !gotParams.UnreadOnly || gotParams.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", gotParams)
	}
}

func TestListNotificationsRejectsBadLimit(t *testing.T) {
	req := userRequest(http.MethodGet, "/api/notifications?limit=zero", uuid.New())
	resp := httptest.NewRecorder()
	ListNotifications(&testNotificationsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListNotificationsRequiresUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	resp := httptest.NewRecorder()
	ListNotifications(&testNotificationsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestMarkNotificationReadSuccess(t *testing.T) {
	userID := uuid.New()
	notificationID := uuid.New()
	called := false
	svc := &testNotificationsService{
		markReadFn: func(_ context.Context, uid, nid uuid.UUID) error {
			called = true
			if uid != userID {
				t.Fatalf("unexpected user %s", uid)
			}
			if nid != notificationID {
				t.Fatalf("unexpected notification %s", nid)
			}
			return nil
		},
	}

	req := userRequest(http.MethodPost, "/api/notifications/"+notificationID.String()+"/read", userID)
	req = addRouteParam(req, "notificationId", notificationID.String())
	resp := httptest.NewRecorder()
	MarkNotificationRead(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !called {
		t.Fatal("expected service called")
	}
}

func TestMarkNotificationReadRejectsBadID(t *testing.T) {
	req := userRequest(http.MethodPost, "/api/notifications/nope/read", uuid.New())
	req = addRouteParam(req, "notificationId", "nope")
	resp := httptest.NewRecorder()
	MarkNotificationRead(&testNotificationsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMarkAllNotificationsReadReportsCount(t *testing.T) {
	userID := uuid.New()
	svc := &testNotificationsService{
		markAllReadFn: func(_ context.Context, uid uuid.UUID) (int64, error) {
			if uid != userID {
				t.Fatalf("unexpected user %s", uid)
			}
			return 3, nil
		},
	}

	req := userRequest(http.MethodPost, "/api/notifications/read-all", userID)
	resp := httptest.NewRecorder()
	MarkAllNotificationsRead(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data map[string]int64 `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data["updated"] != 3 {
		t.Fatalf("unexpected count %d", envelope.Data["updated"])
	}
}
