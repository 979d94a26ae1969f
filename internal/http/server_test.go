package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/jaekwang-park/todo-console/internal/devapitest"
	todohttp "github.com/jaekwang-park/todo-console/internal/http"
	"github.com/jaekwang-park/todo-console/internal/model"
)

func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	_, port, _ := net.SplitHostPort(l.Addr().String())
	return port
}

func waitReady(t *testing.T, base string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(base + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("server did not become ready")
}

func TestServer_ServesConsoleTraffic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	port := freePort(t)
	srv := todohttp.NewServer(port, logger, newTestHandler(t))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	base := "http://127.0.0.1:" + port
	waitReady(t, base)

	body, _ := json.Marshal(model.SigninInput{Email: devapitest.AdminEmail, Password: devapitest.AdminPassword})
	resp, err := http.Post(base+"/signin", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("signin: %v", err)
	}
	var signin struct {
		Data model.Tokens `json:"data"`
	}
	err = json.NewDecoder(resp.Body).Decode(&signin)
	resp.Body.Close()
	if err != nil || signin.Data.AccessToken == "" {
		t.Fatalf("signin returned no token (err=%v, status=%d)", err, resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, base+"/tasks?page=1&limit=5", nil)
	req.Header.Set("Authorization", "Bearer "+signin.Data.AccessToken)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("list tasks status = %d, want 200", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := <-errCh; err != http.ErrServerClosed {
		t.Errorf("Start returned %v, want http.ErrServerClosed", err)
	}
	if _, err := http.Get(base + "/health"); err == nil {
		t.Error("expected requests to fail after shutdown")
	}
}
