package handlers_test

import (
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apihttp "github.com/spec-kit/exemption-service/internal/api/http"
	"github.com/spec-kit/exemption-service/internal/api/http/handlers"
	"github.com/spec-kit/exemption-service/internal/config"
	"github.com/spec-kit/exemption-service/internal/service"
)

func newAssistantApp(t *testing.T, upstream string) *fiber.App {
	t.Helper()

	assistant := service.NewAssistantService(config.AssistantConfig{
		BaseURL:        upstream,
		APIKey:         "sk-test",
		Model:          "gpt-4o-mini",
		TimeoutSeconds: 5,
	}, zap.NewNop())

	app := fiber.New()
	apihttp.RegisterMiddlewares(app, zap.NewNop(), "*", 0)
	app.Post("/api/v1/assistant/chat", handlers.NewAssistantHandler(assistant).Complete)
	return app
}

func postAssistant(t *testing.T, app *fiber.App, payload string) *nethttp.Response {
	t.Helper()
	req := httptest.NewRequest(nethttp.MethodPost, "/api/v1/assistant/chat", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return resp
}

func decodeReply(t *testing.T, resp *nethttp.Response) string {
	t.Helper()
	var body struct {
		Data struct {
			Reply string `json:"reply"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body.Data.Reply
}

func TestAssistantChat(t *testing.T) {
	replyWith := func(content string) nethttp.HandlerFunc {
		return func(w nethttp.ResponseWriter, r *nethttp.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]string{"role": "assistant", "content": content}},
				},
			})
		}
	}

	t.Run("accepts a bare single-turn message", func(t *testing.T) {
		var forwarded []service.AssistantMessage
		upstream := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
			var req struct {
				Messages []service.AssistantMessage `json:"messages"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode upstream request: %v", err)
			}
			forwarded = req.Messages
			replyWith("You need four document categories.")(w, r)
		}))
		defer upstream.Close()

		app := newAssistantApp(t, upstream.URL)
		resp := postAssistant(t, app, `{"message":"Which documents do I need?"}`)
		if resp.StatusCode != nethttp.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if reply := decodeReply(t, resp); reply != "You need four document categories." {
			t.Errorf("reply = %q", reply)
		}
		if len(forwarded) != 1 || forwarded[0].Role != "user" || forwarded[0].Content != "Which documents do I need?" {
			t.Errorf("forwarded = %+v", forwarded)
		}
	})

	t.Run("accepts a conversation array", func(t *testing.T) {
		upstream := httptest.NewServer(replyWith("Yes, diesel models qualify too."))
		defer upstream.Close()

		app := newAssistantApp(t, upstream.URL)
		resp := postAssistant(t, app, `{"messages":[
			{"role":"user","content":"Does a diesel qualify?"},
			{"role":"assistant","content":"Possibly."},
			{"role":"user","content":"Are you sure?"}
		]}`)
		if resp.StatusCode != nethttp.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if reply := decodeReply(t, resp); reply != "Yes, diesel models qualify too." {
			t.Errorf("reply = %q", reply)
		}
	})

	t.Run("rejects an empty payload", func(t *testing.T) {
		upstream := httptest.NewServer(nethttp.HandlerFunc(func(nethttp.ResponseWriter, *nethttp.Request) {
			t.Error("upstream should not be called")
		}))
		defer upstream.Close()

		app := newAssistantApp(t, upstream.URL)
		resp := postAssistant(t, app, `{}`)
		if resp.StatusCode != nethttp.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
		if code := errorCode(t, resp); code != "VALIDATION_FAILED" {
			t.Errorf("code = %q", code)
		}
	})
}
