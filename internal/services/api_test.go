package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/desertthunder/lyricsphere/internal/shared"
	tu "github.com/desertthunder/lyricsphere/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		tests := []struct {
			name    string
			baseURL string
			want    string
		}{
			{name: "Configured Backend", baseURL: "http://192.168.1.20:5000", want: "http://192.168.1.20:5000"},
			{name: "Empty Uses Default", baseURL: "", want: DefaultBaseURL},
			{name: "Trailing Slashes Trimmed", baseURL: "http://lyrics.local//", want: "http://lyrics.local"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := NewAPIService(tt.baseURL, nil).BaseURL(); got != tt.want {
					t.Errorf("expected base URL %q, got %q", tt.want, got)
				}
			})
		}

		t.Run("Client", func(t *testing.T) {
			custom := &http.Client{}
			if NewAPIService("", custom).httpClient != custom {
				t.Error("expected the given client to be used")
			}
			if NewAPIService("", nil).httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient when none is given")
			}
		})
	})

	t.Run("URL", func(t *testing.T) {
		srv := NewAPIService("http://lyrics.local/", nil)
		if got := srv.URL("/songs/summary", nil); got != "http://lyrics.local/songs/summary" {
			t.Errorf("unexpected URL %s", got)
		}
		got := srv.URL("/download_client_backup", url.Values{"client_id": {"c 1"}})
		if got != "http://lyrics.local/download_client_backup?client_id=c+1" {
			t.Errorf("expected encoded query, got %s", got)
		}
	})
}

func TestAPIServiceGet(t *testing.T) {
	t.Run("Songs Summary", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.URL.Path != "/songs/summary" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Cache-Control", "no-store")
			w.Write([]byte(`{"status":"success","songs":[{"filename":"a.json","meta":{"title":"A"}},{"filename":"b.json"}]}`))
		}))
		defer server.Close()

		resp, err := NewAPIService(server.URL, nil).Get(context.Background(), "/songs/summary")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.StatusCode != http.StatusOK || !resp.IsJSON {
			t.Fatalf("expected a 200 JSON response, got %d (json=%v)", resp.StatusCode, resp.IsJSON)
		}
		if err := resp.Err(); err != nil {
			t.Errorf("expected a success envelope, got %v", err)
		}
		obj, _ := resp.JSONData.(map[string]any)
		if songs, _ := obj["songs"].([]any); len(songs) != 2 {
			t.Errorf("expected two songs, got %v", resp.JSONData)
		}
		if resp.Headers.Get("Cache-Control") != "no-store" {
			t.Errorf("expected response headers to be kept, got %v", resp.Headers)
		}
	})

	t.Run("Lyrics File Is Not JSON", func(t *testing.T) {
		ttml := `<tt xmlns="http://www.w3.org/ns/ttml"><body><div><p begin="0.5s">la</p></div></body></tt>`
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/ttml+xml")
			w.Write([]byte(ttml))
		}))
		defer server.Close()

		resp, err := NewAPIService(server.URL, nil).Get(context.Background(), "/lyrics/a.ttml")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.IsJSON || resp.JSONData != nil {
			t.Error("expected TTML to be left undecoded")
		}
		if string(resp.Body) != ttml {
			t.Errorf("expected raw body, got %s", resp.Body)
		}
		if err := resp.Err(); err != nil {
			t.Errorf("expected a 200 without envelope to succeed, got %v", err)
		}
	})

	t.Run("GetJSON Anchor Lookup", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/get_anchor_backup" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.URL.Query().Get("anchor_id"); got != "anchor one" {
				t.Errorf("expected decoded anchor_id, got %q", got)
			}
			w.Write([]byte(`{"status":"success","data":{"version":1,"playlists":[]}}`))
		}))
		defer server.Close()

		var out struct {
			Data struct {
				Version int `json:"version"`
			} `json:"data"`
		}
		srv := NewAPIService(server.URL, nil)
		if _, err := srv.GetJSON(context.Background(), "/get_anchor_backup", url.Values{"anchor_id": {"anchor one"}}, &out); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out.Data.Version != 1 {
			t.Errorf("expected version 1, got %d", out.Data.Version)
		}
	})
}

func TestAPIServicePost(t *testing.T) {
	t.Run("Backup Client State", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/backup_client_state" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected JSON content type, got %s", ct)
			}
			var payload struct {
				ClientID string         `json:"client_id"`
				Data     map[string]any `json:"data"`
			}
			body, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(body, &payload); err != nil || payload.ClientID != "client-1" {
				t.Errorf("unexpected payload %s (%v)", body, err)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"success","message":"Backup saved"}`))
		}))
		defer server.Close()

		body := []byte(`{"client_id":"client-1","data":{"version":1,"playlists":[],"history":[],"listenStats":{}}}`)
		resp, err := NewAPIService(server.URL, nil).Post(context.Background(), "/backup_client_state", body)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := resp.Err(); err != nil {
			t.Errorf("expected success, got %v", err)
		}
		if msg := resp.Message("done"); msg != "Backup saved" {
			t.Errorf("expected server message, got %q", msg)
		}
	})

	t.Run("UploadJSON Without Message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			if len(body) != 0 {
				t.Errorf("expected empty body, got %d bytes", len(body))
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		resp, err := NewAPIService(server.URL, nil).UploadJSON(context.Background(), "/backup_client_state", nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.StatusCode != http.StatusNoContent || resp.IsJSON {
			t.Errorf("expected an empty 204, got %d (json=%v)", resp.StatusCode, resp.IsJSON)
		}
		if msg := resp.Message("done"); msg != "done" {
			t.Errorf("expected fallback message, got %q", msg)
		}
	})

	t.Run("PostJSON", func(t *testing.T) {
		t.Run("Error Status", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"status":"error","message":"wrong password"}`))
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			_, err := srv.PostJSON(context.Background(), "/anchor_backup", map[string]string{"account": "a"}, nil)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.StatusCode != http.StatusForbidden || apiErr.Message != "wrong password" {
				t.Errorf("unexpected error %+v", apiErr)
			}
		})

		t.Run("Converted Lyrics", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req map[string]string
				json.NewDecoder(r.Body).Decode(&req)
				if req["path"] != "songs/a.ttml" {
					t.Errorf("expected lyrics path in body, got %v", req)
				}
				w.Write([]byte(`{"status":"success","lrc":"[00:00.50]la"}`))
			}))
			defer server.Close()

			var out struct {
				LRC string `json:"lrc"`
			}
			srv := NewAPIService(server.URL, nil)
			if _, err := srv.PostJSON(context.Background(), "/convert_ttml_by_path", map[string]string{"path": "songs/a.ttml"}, &out); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if out.LRC != "[00:00.50]la" {
				t.Errorf("unexpected lrc %q", out.LRC)
			}
		})

		t.Run("Non JSON Success Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("ok"))
			}))
			defer server.Close()

			var out map[string]any
			srv := NewAPIService(server.URL, nil)
			if _, err := srv.PostJSON(context.Background(), "/backup_client_state", nil, &out); err == nil {
				t.Error("expected error decoding non-JSON body")
			}
			if _, err := srv.PostJSON(context.Background(), "/backup_client_state", nil, nil); err != nil {
				t.Errorf("expected nil out to skip decoding, got %v", err)
			}
		})

		t.Run("Unmarshalable Body", func(t *testing.T) {
			srv := NewAPIService("http://lyrics.local", nil)
			_, err := srv.PostJSON(context.Background(), "/backup_client_state", make(chan int), nil)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})
	})
}

func TestAPIServiceFailures(t *testing.T) {
	calls := map[string]func(*APIService, context.Context, string) error{
		"Get": func(s *APIService, ctx context.Context, path string) error {
			_, err := s.Get(ctx, path)
			return err
		},
		"Post": func(s *APIService, ctx context.Context, path string) error {
			_, err := s.Post(ctx, path, []byte(`{}`))
			return err
		},
	}

	for method, call := range calls {
		t.Run(method, func(t *testing.T) {
			t.Run("Invalid Path", func(t *testing.T) {
				err := call(NewAPIService("http://lyrics.local", nil), context.Background(), "/songs\x00summary")
				if err == nil || !strings.Contains(err.Error(), "failed to create request") {
					t.Errorf("expected request creation error, got %v", err)
				}
			})

			t.Run("Backend Offline", func(t *testing.T) {
				client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
				err := call(NewAPIService("http://lyrics.local", client), context.Background(), "/amll/state")
				if !errors.Is(err, shared.ErrServiceUnavailable) {
					t.Errorf("expected ErrServiceUnavailable, got %v", err)
				}
			})

			t.Run("Truncated Body", func(t *testing.T) {
				client := &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     http.Header{},
				}, nil)}
				err := call(NewAPIService("http://lyrics.local", client), context.Background(), "/songs/summary")
				if err == nil || !strings.Contains(err.Error(), "failed to read response") {
					t.Errorf("expected read error, got %v", err)
				}
			})

			t.Run("Canceled Context", func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
				defer server.Close()

				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				if err := call(NewAPIService(server.URL, nil), ctx, "/amll/state"); err == nil {
					t.Error("expected error for canceled context")
				}
			})
		})
	}
}

func TestAPIResponseErr(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "Catalog Success", status: http.StatusOK, body: `{"status":"success","songs":[]}`},
		{name: "Plain Body", status: http.StatusOK, body: `saved`},
		{name: "Error Envelope On 200", status: http.StatusOK, body: `{"status":"error","message":"anchor not found"}`, wantErr: "anchor not found"},
		{name: "Missing Client ID", status: http.StatusBadRequest, body: `{"status":"error","message":"missing client_id"}`, wantErr: "missing client_id"},
		{name: "Server Error Without Body", status: http.StatusInternalServerError, wantErr: "Request failed with 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &APIResponse{StatusCode: tt.status, Body: []byte(tt.body)}
			var decoded any
			if json.Unmarshal(resp.Body, &decoded) == nil {
				resp.IsJSON, resp.JSONData = true, decoded
			}

			err := resp.Err()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Fatalf("expected error %q, got %v", tt.wantErr, err)
			}
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Error("expected error to wrap ErrAPIRequest")
			}
		})
	}
}

func TestAPIServiceRateLimit(t *testing.T) {
	srv := NewAPIService("http://lyrics.local", nil).WithRateLimit(10, 0)
	if srv.limiter == nil || srv.limiter.Burst() != 1 {
		t.Fatal("expected limiter with burst clamped to 1")
	}
	if srv.WithRateLimit(0, 5).limiter != nil {
		t.Error("expected non-positive rate to disable limiting")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	limited := NewAPIService("http://lyrics.local", &http.Client{
		Transport: tu.NewMockRoundTripper(nil, errors.New("unreachable")),
	}).WithRateLimit(0.001, 1)
	limited.limiter.Allow()
	if _, err := limited.Get(ctx, "/amll/state"); err == nil || !strings.Contains(err.Error(), "rate limiter") {
		t.Errorf("expected limiter wait error, got %v", err)
	}
}
