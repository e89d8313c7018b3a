package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	auditdomain "unipos-auth/internal/audit/domain"
	"unipos-auth/internal/identity/domain"
	"unipos-auth/internal/server/middleware"
	userdomain "unipos-auth/internal/user/domain"
	userservice "unipos-auth/internal/user/service"
)

type fakeUsers struct {
	callerID string
	update   userservice.UpdateRequest
	deleted  userservice.DeleteRequest
	limit    int
}

func (f *fakeUsers) Update(ctx context.Context, callerID string, req userservice.UpdateRequest) (*userdomain.Summary, error) {
	f.callerID, f.update = callerID, req
	if req.IDUser != callerID {
		return nil, userservice.ErrForbidden
	}
	return &userdomain.Summary{ID: callerID, FirstName: *req.FirstName}, nil
}

func (f *fakeUsers) ChangePassword(ctx context.Context, callerID string, req userservice.ChangePasswordRequest) error {
	if req.OldPassword != "secret123" {
		return userservice.ErrInvalidPassword
	}
	return nil
}

func (f *fakeUsers) Deactivate(ctx context.Context, callerID string, req userservice.DeleteRequest) error {
	f.callerID, f.deleted = callerID, req
	return nil
}

func (f *fakeUsers) Activity(ctx context.Context, callerID string, limit int) ([]*auditdomain.AuditLog, error) {
	f.limit = limit
	sid := int64(4)
	return []*auditdomain.AuditLog{
		{ID: "a2", Action: "logout", Outcome: "success", SessionID: &sid, CreatedAt: time.Unix(200, 0).UTC()},
		{ID: "a1", Action: "login", Outcome: "success", SessionID: &sid, CreatedAt: time.Unix(100, 0).UTC()},
	}, nil
}

func serve(h http.HandlerFunc, method, target, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if authed {
		req = req.WithContext(middleware.WithIdentity(req.Context(), &domain.Identity{UserID: "u1", SessionID: 4}))
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestUserHandler_Unauthenticated(t *testing.T) {
	h := NewUserHandler(&fakeUsers{}, nil)
	for name, fn := range map[string]http.HandlerFunc{
		"update": h.Update, "change-password": h.ChangePassword, "delete": h.Delete, "activity": h.Activity,
	} {
		if rec := serve(fn, http.MethodGet, "/", "{}", false); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s status = %d, want 401", name, rec.Code)
		}
	}
}

func TestUserHandler_Update(t *testing.T) {
	users := &fakeUsers{}
	h := NewUserHandler(users, nil)

	rec := serve(h.Update, http.MethodPatch, "/", `{"id_user":"u1","firstName":"Alicia"}`, true)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"firstName":"Alicia"`) {
		t.Fatalf("update = %d %s", rec.Code, rec.Body)
	}
	if users.callerID != "u1" {
		t.Errorf("caller = %q", users.callerID)
	}
	if rec := serve(h.Update, http.MethodPatch, "/", `{"id_user":"u2","firstName":"X"}`, true); rec.Code != http.StatusForbidden {
		t.Errorf("other user status = %d, want 403", rec.Code)
	}
}

func TestUserHandler_ChangePasswordAndDelete(t *testing.T) {
	users := &fakeUsers{}
	h := NewUserHandler(users, nil)
	if rec := serve(h.ChangePassword, http.MethodPatch, "/", `{"oldPassword":"nope","newPassword":"newpass1"}`, true); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong old password status = %d", rec.Code)
	}
	if rec := serve(h.ChangePassword, http.MethodPatch, "/", `{"oldPassword":"secret123","newPassword":"newpass1"}`, true); rec.Code != http.StatusOK {
		t.Errorf("change password status = %d", rec.Code)
	}
	if rec := serve(h.Delete, http.MethodDelete, "/", `{"id_user":"u1"}`, true); rec.Code != http.StatusOK {
		t.Errorf("delete status = %d", rec.Code)
	}
	if users.deleted.IDUser != "u1" {
		t.Errorf("delete request = %+v", users.deleted)
	}
}

func TestUserHandler_Activity(t *testing.T) {
	users := &fakeUsers{}
	h := NewUserHandler(users, nil)

	rec := serve(h.Activity, http.MethodGet, "/?limit=5", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("activity status = %d", rec.Code)
	}
	if users.limit != 5 {
		t.Errorf("limit = %d, want 5", users.limit)
	}
	var entries []ActivityEntry
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].ID != "a2" || *entries[0].SessionID != 4 {
		t.Errorf("entries = %+v", entries)
	}

	serve(h.Activity, http.MethodGet, "/", "", true)
	if users.limit != 0 {
		t.Errorf("missing limit passed as %d, want 0 for the service default", users.limit)
	}
	for _, q := range []string{"abc", "0", "-3"} {
		if rec := serve(h.Activity, http.MethodGet, "/?limit="+q, "", true); rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s status = %d, want 400", q, rec.Code)
		}
	}
}
