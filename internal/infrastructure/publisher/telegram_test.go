package publisher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"NewsAgent/internal/config"
	"NewsAgent/internal/domain"
)

func newTelegramTestServer(t *testing.T) (*httptest.Server, *map[string]string) {
	t.Helper()

	captured := map[string]string{}
	mux := http.NewServeMux()

	mux.HandleFunc("/bottest-token/getMe", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"ok": true, "result": map[string]any{
			"id": 1, "is_bot": true, "first_name": "newsbot", "username": "newsbot",
		}})
	})
	mux.HandleFunc("/bottest-token/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		captured["method"] = "sendMessage"
		captured["chat_id"] = r.PostFormValue("chat_id")
		captured["text"] = r.PostFormValue("text")
		captured["parse_mode"] = r.PostFormValue("parse_mode")
		writeJSON(w, map[string]any{"ok": true, "result": map[string]any{
			"message_id": 42, "date": 1, "chat": map[string]any{"id": -100123, "type": "channel"},
		}})
	})
	mux.HandleFunc("/bottest-token/sendPhoto", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		captured["method"] = "sendPhoto"
		captured["photo"] = r.PostFormValue("photo")
		captured["caption"] = r.PostFormValue("caption")
		writeJSON(w, map[string]any{"ok": true, "result": map[string]any{
			"message_id": 43, "date": 1, "chat": map[string]any{"id": -100123, "type": "channel"},
		}})
	})

	server := httptest.NewServer(mux)
	return server, &captured
}

func newTestTelegramPublisher(server *httptest.Server) *TelegramPublisher {
	p := NewTelegramPublisher(config.TelegramConfig{BotToken: "test-token", ChannelID: "-100123"})
	p.endpoint = server.URL + "/bot%s/%s"
	p.client = server.Client()
	return p
}

func TestTelegramPublishTextMessage(t *testing.T) {
	t.Parallel()

	server, captured := newTelegramTestServer(t)
	defer server.Close()

	p := newTestTelegramPublisher(server)

	article := domain.Article{Title: "Hello", Description: "World", SourceURL: "https://example.org/a"}
	id, err := p.Publish(context.Background(), article)
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}

	if id != "42" {
		t.Fatalf("unexpected message id: %s", id)
	}
	got := *captured
	if got["method"] != "sendMessage" {
		t.Fatalf("expected sendMessage, got %s", got["method"])
	}
	if got["chat_id"] != "-100123" {
		t.Fatalf("unexpected chat id: %s", got["chat_id"])
	}
	if got["parse_mode"] != "HTML" {
		t.Fatalf("unexpected parse mode: %s", got["parse_mode"])
	}
	if !strings.Contains(got["text"], "<b>Hello</b>") || !strings.Contains(got["text"], "Read more") {
		t.Fatalf("unexpected text: %q", got["text"])
	}
}

func TestTelegramPublishPhotoMessage(t *testing.T) {
	t.Parallel()

	server, captured := newTelegramTestServer(t)
	defer server.Close()

	p := newTestTelegramPublisher(server)

	article := domain.Article{Title: "Pic", Content: "Body", ImageURL: "https://cdn.example.org/p.jpg"}
	id, err := p.Publish(context.Background(), article)
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}

	if id != "43" {
		t.Fatalf("unexpected message id: %s", id)
	}
	got := *captured
	if got["method"] != "sendPhoto" {
		t.Fatalf("expected sendPhoto, got %s", got["method"])
	}
	if got["photo"] != "https://cdn.example.org/p.jpg" {
		t.Fatalf("unexpected photo: %s", got["photo"])
	}
	if !strings.Contains(got["caption"], "<b>Pic</b>") {
		t.Fatalf("unexpected caption: %q", got["caption"])
	}
}

func TestTelegramConfigured(t *testing.T) {
	t.Parallel()

	if NewTelegramPublisher(config.TelegramConfig{}).Configured() {
		t.Fatal("empty credentials must report unconfigured")
	}
	if NewTelegramPublisher(config.TelegramConfig{BotToken: "t"}).Configured() {
		t.Fatal("missing channel must report unconfigured")
	}
	if !NewTelegramPublisher(config.TelegramConfig{BotToken: "t", ChannelID: "@c"}).Configured() {
		t.Fatal("full credentials must report configured")
	}
}

func TestFormatTelegramMessage(t *testing.T) {
	t.Parallel()

	article := domain.Article{
		Title:       "A <tag> title",
		Description: "Desc & more",
		SourceURL:   "https://example.org/a",
	}

	message := formatTelegramMessage(article)

	if !strings.Contains(message, "<b>A &lt;tag&gt; title</b>") {
		t.Fatalf("title must be escaped: %q", message)
	}
	if !strings.Contains(message, "Desc &amp; more") {
		t.Fatalf("body must be escaped: %q", message)
	}
	if !strings.Contains(message, `<a href="https://example.org/a">Read more</a>`) {
		t.Fatalf("missing source link: %q", message)
	}

	plain := formatTelegramMessage(domain.Article{Title: "Bare", Content: "fallback body"})
	if !strings.Contains(plain, "fallback body") {
		t.Fatalf("content must be used when description is empty: %q", plain)
	}
	if strings.Contains(plain, "Read more") {
		t.Fatalf("no link expected without source url: %q", plain)
	}
}
