package notifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const pollingUpdates = `{"ok":true,"result":[
{"update_id":1,"message":{"message_id":1,"date":1700000000,"chat":{"id":42,"type":"private"},"text":" /status "}},
{"update_id":2,"message":{"message_id":2,"date":1700000000,"chat":{"id":99,"type":"private"},"text":"/status"}},
{"update_id":3,"message":{"message_id":3,"date":1700000000,"chat":{"id":42,"type":"private"},"text":"hello"}}
]}`

func pollingServer(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var polls, sends int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Sentinel","username":"sentinel_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if atomic.AddInt32(&polls, 1) == 1 {
				w.Write([]byte(pollingUpdates))
				return
			}
			time.Sleep(10 * time.Millisecond)
			w.Write([]byte(`{"ok":true,"result":[]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			atomic.AddInt32(&sends, 1)
			if r.FormValue("chat_id") != "42" {
				t.Errorf("reply sent to chat %q", r.FormValue("chat_id"))
			}
			if r.FormValue("text") != "status reply" {
				t.Errorf("unexpected reply %q", r.FormValue("text"))
			}
			w.Write([]byte(`{"ok":true,"result":{"message_id":9,"date":1700000000,"chat":{"id":42,"type":"private"},"text":"status reply"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &sends
}

func TestTelegramMirror_StartPolling(t *testing.T) {
	srv, sends := pollingServer(t)
	m := newTestMirror(t, srv)

	commands := make(chan string, 10)
	handler := func(_ context.Context, cmd string) string {
		commands <- cmd
		if cmd == "/status" {
			return "status reply"
		}
		return ""
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.StartPolling(ctx, handler)
		close(done)
	}()

	var got []string
	for len(got) < 2 {
		select {
		case cmd := <-commands:
			got = append(got, cmd)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for commands, got %v", got)
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop after cancel")
	}

	if got[0] != "/status" || got[1] != "hello" {
		t.Errorf("commands = %v, want trimmed commands from chat 42 only", got)
	}
	select {
	case cmd := <-commands:
		t.Errorf("unexpected extra command %q", cmd)
	default:
	}
	if n := atomic.LoadInt32(sends); n != 1 {
		t.Errorf("expected 1 reply, got %d", n)
	}
}
