package llamacpp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func completionServer(t *testing.T, content any, status int, seen *ChatCompletionRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if seen != nil {
			if err := json.NewDecoder(r.Body).Decode(seen); err != nil {
				t.Errorf("bad request body: %v", err)
			}
		}
		if status != http.StatusOK {
			http.Error(w, "model not loaded", status)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "1",
			"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": content}}},
		})
	}))
}

func TestLocateFaces(t *testing.T) {
	var seen ChatCompletionRequest
	srv := completionServer(t, `{"faces":[{"box":{"x":0.2,"y":0.2,"w":0.2,"h":0.3},"left_eye":{"x":0.25,"y":0.3},"right_eye":{"x":0.35,"y":0.3},}]}`, http.StatusOK, &seen)
	defer srv.Close()

	c, _ := NewClient(srv.URL + "/")
	res, err := c.LocateFaces(context.Background(), "qwen2.5-vl", "find faces", "aGVsbG8=")
	if err != nil {
		t.Fatalf("LocateFaces failed: %v", err)
	}
	if len(res.Faces) != 1 || res.Faces[0].LeftEye == nil {
		t.Fatalf("Unexpected faces %+v", res.Faces)
	}
	if seen.ResponseFormat == nil || seen.ResponseFormat.Type != "json_object" {
		t.Errorf("Expected json_object response format, got %+v", seen.ResponseFormat)
	}
	if seen.Model != "qwen2.5-vl" {
		t.Errorf("Expected model to be forwarded, got %q", seen.Model)
	}
}

func TestSimpleQueryContentParts(t *testing.T) {
	srv := completionServer(t, []any{map[string]any{"type": "text", "text": "a red square"}}, http.StatusOK, nil)
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	got, err := c.SimpleQuery(context.Background(), "m", "what is this", "")
	if err != nil {
		t.Fatalf("SimpleQuery failed: %v", err)
	}
	if got != "a red square" {
		t.Errorf("Unexpected answer %q", got)
	}
}

func TestServerError(t *testing.T) {
	srv := completionServer(t, "", http.StatusServiceUnavailable, nil)
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	_, err := c.LocateFaces(context.Background(), "m", "p", "")
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Errorf("Expected status error, got %v", err)
	}
}

func TestNewClientDefaultURL(t *testing.T) {
	c, _ := NewClient("")
	if c.baseURL != DefaultURL {
		t.Errorf("Expected default URL, got %s", c.baseURL)
	}
}
