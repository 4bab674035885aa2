package handler_test

import (
	"net/http"
	"testing"

	"github.com/escapeeng/admin-gateway/internal/model"
)

func TestSessionAuditListAndRevoke(t *testing.T) {
	users := newFakeUsers()
	users.add(t, "admin@example.com", "admin123", "Admin User", model.RoleAdmin)
	sessions := newFakeSessions()
	srv := newTestServer(t, users, sessions)
	client := newJarClient(t)
	loginAs(t, client, srv.URL, "admin@example.com", "admin123")

	resp := doReq(t, client, http.MethodGet, srv.URL+"/api/admin/sessions")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list sessions = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	list, ok := body["sessions"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("sessions = %v, want exactly the login session", body["sessions"])
	}
	sid, _ := list[0].(map[string]any)["session_id"].(string)
	if sid == "" {
		t.Fatal("listed session has no session_id")
	}

	// Force-revoke it; revocation is idempotent.
	for i := 0; i < 2; i++ {
		resp2 := doReq(t, client, http.MethodDelete, srv.URL+"/api/admin/sessions/"+sid)
		resp2.Body.Close()
		if resp2.StatusCode != http.StatusOK {
			t.Fatalf("revoke attempt %d = %d, want 200", i+1, resp2.StatusCode)
		}
	}

	resp3 := doReq(t, client, http.MethodGet, srv.URL+"/api/admin/sessions")
	body3 := decodeBody(t, resp3)
	if list, ok := body3["sessions"].([]any); ok && len(list) != 0 {
		t.Fatalf("sessions after revoke = %v, want empty", body3["sessions"])
	}
}
