package llamasrv

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"leadagent_backend/platform/ai"
)

func TestRecoverJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean", `{"name":"Jane"}`, `{"name":"Jane"}`},
		{"fenced", "```json\n{\"name\":\"Jane\"}\n```", `{"name":"Jane"}`},
		{"surrounding prose", `Sure! Here you go: {"name":"Jane"} hope that helps`, `{"name":"Jane"}`},
		{"no object", "cannot help with that", "cannot help with that"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := recoverJSON(tt.in); got != tt.want {
				t.Errorf("recoverJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func completionHandler(t *testing.T, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(completionHandler(t, "Happy to help with that."))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/v1", Model: "test-model"})
	got, err := c.Generate(context.Background(), "be helpful", []ai.Message{{Role: ai.RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatal(err)
	}
	if got != "Happy to help with that." {
		t.Errorf("got %q", got)
	}
}

func TestExtractJSONRecoversFencedOutput(t *testing.T) {
	srv := httptest.NewServer(completionHandler(t, "```json\n{\"name\": \"Jane\", \"company\": \"Acme\"}\n```"))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/v1", Model: "test-model"})
	got, err := c.ExtractJSON(context.Background(), "I'm Jane from Acme", []string{"name", "company"})
	if err != nil {
		t.Fatal(err)
	}
	if got["name"] != "Jane" || got["company"] != "Acme" {
		t.Errorf("got %v", got)
	}
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"error": map[string]string{"message": "overloaded"}})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/v1", Model: "test-model"})
	if _, err := c.Generate(context.Background(), "sys", nil); err == nil {
		t.Error("expected error from error payload")
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/v1"})
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
