package password_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/casalink/internal/app/features/password"
	"github.com/dalemusser/casalink/internal/app/session"
	"github.com/dalemusser/casalink/internal/app/system/auth"
	"go.uber.org/zap"
)

type stubCore struct {
	err error

	gotCurrent string
	gotNew     string
}

func (s *stubCore) ChangePassword(_ context.Context, current, new string) error {
	s.gotCurrent = current
	s.gotNew = new
	return s.err
}

func init() {
	_ = auth.InitSessionStore("test-session-key-for-testing-only!!", "", false, zap.NewNop())
}

func postChange(t *testing.T, h *password.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/password/change", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleChange(rec, req)
	return rec
}

func TestHandleChange_Success(t *testing.T) {
	core := &stubCore{}
	h := password.NewHandler(core, zap.NewNop())

	rec := postChange(t, h, `{"currentPassword":"temp-pass-1","newPassword":"chosen-pass-9"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	if core.gotCurrent != "temp-pass-1" || core.gotNew != "chosen-pass-9" {
		t.Errorf("core called with (%q, %q)", core.gotCurrent, core.gotNew)
	}
}

func TestHandleChange_WrongCurrentPassword(t *testing.T) {
	core := &stubCore{err: &session.ReauthenticationError{Err: session.ErrInvalidCredentials}}
	h := password.NewHandler(core, zap.NewNop())

	rec := postChange(t, h, `{"currentPassword":"wrong","newPassword":"chosen-pass-9"}`)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	var resp struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != "wrong_current_password" {
		t.Errorf("code = %q, want wrong_current_password", resp.Code)
	}
}

func TestHandleChange_NotAuthenticated(t *testing.T) {
	core := &stubCore{err: session.ErrNotAuthenticated}
	h := password.NewHandler(core, zap.NewNop())

	rec := postChange(t, h, `{"currentPassword":"temp","newPassword":"chosen-pass-9"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHandleChange_Validation(t *testing.T) {
	core := &stubCore{}
	h := password.NewHandler(core, zap.NewNop())

	tests := []struct {
		name string
		body string
	}{
		{"missing current", `{"newPassword":"chosen-pass-9"}`},
		{"missing new", `{"currentPassword":"temp"}`},
		{"too short", `{"currentPassword":"temp","newPassword":"short"}`},
		{"same as current", `{"currentPassword":"samepassword","newPassword":"samepassword"}`},
		{"malformed", `{`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := postChange(t, h, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
	if core.gotNew != "" {
		t.Error("core was called for an invalid request")
	}
}
