package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClientRejectsBadURL(t *testing.T) {
	if _, err := NewClient("not a url"); err == nil {
		t.Error("Expected error for URL without scheme")
	}
	if _, err := NewClient("http://localhost:11434/api/chat"); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestLocateFaces(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"model": "minicpm-v4",
			"message": map[string]any{
				"role":    "assistant",
				"content": "```json\n{\"faces\":[{\"box\":{\"x\":0.1,\"y\":0.2,\"w\":0.3,\"h\":0.4}}]}\n```",
			},
			"done": true,
		})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	res, err := c.LocateFaces(context.Background(), "minicpm-v4", "find faces", "aGVsbG8=")
	if err != nil {
		t.Fatalf("LocateFaces failed: %v", err)
	}
	if len(res.Faces) != 1 || res.Faces[0].Box.W != 0.3 {
		t.Errorf("Unexpected faces %+v", res.Faces)
	}
	if got["format"] != "json" {
		t.Errorf("Expected json format, got %v", got["format"])
	}
	if opts, _ := got["options"].(map[string]any); opts["num_ctx"] != float64(4096) {
		t.Errorf("Expected MiniCPM options, got %v", got["options"])
	}
}

func TestSimpleQueryBadImage(t *testing.T) {
	c, _ := NewClient("http://127.0.0.1:1")
	if _, err := c.SimpleQuery(context.Background(), "m", "hi", "%%%"); err == nil {
		t.Error("Expected base64 error")
	}
}
