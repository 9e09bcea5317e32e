package http_wrappers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/playbook-ai/playbook-ai/pkg/api"
)

func TestFormValue(t *testing.T) {
	form := url.Values{}
	form.Set("message", `{"vendor_domain":"gong.io"}`)
	form.Set("stream", "false")

	req := httptest.NewRequest(http.MethodPost, "/workflows/x/runs", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	wrapper := NewRequestWrapper(req)

	if v, ok := wrapper.FormValue("message"); !ok || v != `{"vendor_domain":"gong.io"}` {
		t.Errorf("unexpected message value %q (present %v)", v, ok)
	}
	if v, ok := wrapper.FormValue("stream"); !ok || v != "false" {
		t.Errorf("unexpected stream value %q (present %v)", v, ok)
	}
	if _, ok := wrapper.FormValue("session_id"); ok {
		t.Errorf("expected session_id to be absent")
	}
}

func TestErrorResponse(t *testing.T) {
	recorder := httptest.NewRecorder()
	NewResponseWrapper(recorder, nil).ErrorWithCode("resource_not_found", "not found", 404, "req-1")

	if recorder.Code != 404 {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}
	var body api.Error
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if body.MessageCode != "resource_not_found" || body.Message != "not found" || body.Trace != "req-1" {
		t.Errorf("unexpected body %+v", body)
	}
}
