package slackapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/slack-go/slack"
)

func TestSinkPost(t *testing.T) {
	var gotPath, gotChannel, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		r.ParseForm()
		gotChannel = r.FormValue("channel")
		gotText = r.FormValue("text")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"channel":"C1","ts":"1700000000.000200"}`))
	}))
	defer srv.Close()

	s := NewSink("xoxb-test", slack.OptionAPIURL(srv.URL+"/"))
	if err := s.Post(context.Background(), "C1", "2 items updated from 'Alice' to 'Bob'"); err != nil {
		t.Fatalf("Post: %v", err)
	}

	if gotPath != "/chat.postMessage" {
		t.Errorf("expected chat.postMessage, got %q", gotPath)
	}
	if gotChannel != "C1" || gotText != "2 items updated from 'Alice' to 'Bob'" {
		t.Errorf("unexpected message %q / %q", gotChannel, gotText)
	}
}

func TestSinkPostError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	defer srv.Close()

	s := NewSink("xoxb-test", slack.OptionAPIURL(srv.URL+"/"))
	err := s.Post(context.Background(), "C404", "hi")
	if err == nil || !strings.Contains(err.Error(), "channel_not_found") {
		t.Errorf("expected channel_not_found, got %v", err)
	}
}
