package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"queueWatch/internal/modules/queue/application/port"
	"queueWatch/internal/modules/queue/domain"
	"queueWatch/internal/shared/auth"
)

func TestRemoteSinkSendStatic(t *testing.T) {
	t.Parallel()

	var gotAuth string
	var gotSnapshot domain.Snapshot
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotSnapshot); err != nil {
			t.Errorf("decode failed: %v", err)
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	t.Cleanup(server.Close)

	sink, err := NewRemoteSink(RemoteSinkConfig{URL: server.URL + "/api/collect", Secret: "s3cret", Timeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snapshot := testSnapshot(time.Date(2026, 1, 12, 12, 0, 0, 0, testZone), 37)
	snapshot.RawData = json.RawMessage(`{"id":19}`)
	if err := sink.Send(context.Background(), snapshot); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if gotAuth != "Bearer s3cret" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
	if gotSnapshot.TotalLineup != 37 || string(gotSnapshot.RawData) != `{"id":19}` {
		t.Fatalf("unexpected payload %+v", gotSnapshot)
	}
}

func TestRemoteSinkSendJWT(t *testing.T) {
	t.Parallel()

	validator := auth.NewSecretValidator("s3cret")
	var subject string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := validator.Validate(auth.ExtractBearerToken(r))
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
			return
		}
		subject = claims.Subject
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	t.Cleanup(server.Close)

	sink, err := NewRemoteSink(RemoteSinkConfig{URL: server.URL, Secret: "s3cret", AuthMode: "JWT"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sink.Send(context.Background(), testSnapshot(time.Now(), 1)); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if subject != "19" {
		t.Fatalf("expected store id subject, got %q", subject)
	}
}

func TestRemoteSinkFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"Unauthorized"}`, wantMsg: "Unauthorized"},
		{name: "server error", status: http.StatusInternalServerError, body: `boom`, wantMsg: "boom"},
		{name: "rejected", status: http.StatusOK, body: `{"success":false,"error":"store offline"}`, wantMsg: "store offline"},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(test.status)
				_, _ = w.Write([]byte(test.body))
			}))
			t.Cleanup(server.Close)

			sink, err := NewRemoteSink(RemoteSinkConfig{URL: server.URL, Secret: "s3cret"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			err = sink.Send(context.Background(), testSnapshot(time.Now(), 1))
			if !errors.Is(err, port.ErrRemote) {
				t.Fatalf("expected ErrRemote, got %v", err)
			}
			if !strings.Contains(err.Error(), test.wantMsg) {
				t.Fatalf("expected %q in %q", test.wantMsg, err.Error())
			}
		})
	}
}

func TestRemoteSinkDisabledWithoutSecret(t *testing.T) {
	t.Parallel()

	called := false
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	t.Cleanup(server.Close)

	sink, err := NewRemoteSink(RemoteSinkConfig{URL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.Enabled() {
		t.Fatal("expected sink to be disabled")
	}
	if err := sink.Send(context.Background(), testSnapshot(time.Now(), 1)); !errors.Is(err, port.ErrRemoteDisabled) {
		t.Fatalf("expected ErrRemoteDisabled, got %v", err)
	}
	if called {
		t.Fatal("expected no request without a credential")
	}
}

func TestRemoteSinkSendBatch(t *testing.T) {
	t.Parallel()

	var gotPath string
	var payload struct {
		Snapshots []domain.Snapshot `json:"snapshots"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&payload)
		_, _ = w.Write([]byte(`{"success":true,"inserted":1,"duplicates":1}`))
	}))
	t.Cleanup(server.Close)

	sink, err := NewRemoteSink(RemoteSinkConfig{URL: server.URL + "/api/collect/", Secret: "s3cret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	at := time.Date(2026, 1, 12, 12, 0, 0, 0, testZone)
	result, err := sink.SendBatch(context.Background(), []domain.Snapshot{testSnapshot(at, 1), testSnapshot(at.Add(time.Second), 2)})
	if err != nil {
		t.Fatalf("send batch failed: %v", err)
	}
	if gotPath != "/api/collect/batch" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if len(payload.Snapshots) != 2 {
		t.Fatalf("expected 2 snapshots in payload, got %d", len(payload.Snapshots))
	}
	if result != (port.InsertResult{Inserted: 1, Duplicates: 1}) {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestNewRemoteSinkRejectsUnknownMode(t *testing.T) {
	t.Parallel()

	if _, err := NewRemoteSink(RemoteSinkConfig{AuthMode: "basic"}); err == nil {
		t.Fatal("expected error for unsupported auth mode")
	}
}
