package gme

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kkaya/gmedash/pkg/config"
	"github.com/kkaya/gmedash/pkg/httputil"
	"github.com/kkaya/gmedash/pkg/logger"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	log := logger.NewWriter(io.Discard)
	cfg := config.GMEConfig{
		Username: "user",
		Password: "pass",
		BaseURL:  baseURL,
		Timeout:  5 * time.Second,
	}
	httpClient := httputil.New(log, cfg.Timeout).DisableRetry()
	return NewClient(cfg, httpClient, log)
}

func contentResponse(t *testing.T, records string) string {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("data.json")
	if err != nil {
		t.Fatal(err)
	}
	f.Write([]byte(records))
	w.Close()
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestLoginSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Auth" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["login"] != "user" || body["password"] != "pass" {
			t.Errorf("unexpected credentials: %v", body)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"token":   "tok-123",
		})
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
}

func TestLoginRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "invalid credentials",
		})
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	err := client.Login(context.Background())
	if err == nil {
		t.Fatal("expected authentication error")
	}

	var authErr *AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %T", err)
	}
}

func TestRequestData(t *testing.T) {
	content := contentResponse(t, `[{"FlowDate": 20241115, "Hour": 1, "Price": 130.25}]`)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Auth":
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "token": "tok"})
		case "/RequestData":
			if got := r.Header.Get("Authorization"); got != "Bearer tok" {
				t.Errorf("Authorization = %q", got)
			}
			var envelope map[string]string
			json.NewDecoder(r.Body).Decode(&envelope)
			if envelope["Platform"] != "PublicMarketResults" {
				t.Errorf("Platform = %s", envelope["Platform"])
			}
			if envelope["Segment"] != "MGP" || envelope["DataName"] != "ME_ZonalPrices" {
				t.Errorf("unexpected envelope: %v", envelope)
			}
			if envelope["IntervalStart"] != "20241115" || envelope["IntervalEnd"] != "20241115" {
				t.Errorf("unexpected interval: %v", envelope)
			}
			json.NewEncoder(w).Encode(map[string]string{"contentResponse": content})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	day := time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC)

	records, err := client.RequestData(context.Background(), "MGP", "ME_ZonalPrices", day)
	if err != nil {
		t.Fatalf("RequestData() failed: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0]["Price"] != 130.25 {
		t.Errorf("Price = %v, want 130.25", records[0]["Price"])
	}
}

func TestRequestDataEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Auth":
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "token": "tok"})
		default:
			json.NewEncoder(w).Encode(map[string]string{"contentResponse": ""})
		}
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	records, err := client.RequestData(context.Background(), "MGP", "ME_ZonalPrices", time.Now())
	if err != nil {
		t.Fatalf("RequestData() failed: %v", err)
	}
	if records != nil {
		t.Errorf("expected nil records for empty content, got %v", records)
	}
}

func TestRequestDataRefreshesOn401(t *testing.T) {
	var authCalls, dataCalls int32
	content := contentResponse(t, `[{"FlowDate": 20241115}]`)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Auth":
			n := atomic.AddInt32(&authCalls, 1)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"token":   fmt.Sprintf("tok-%d", n),
			})
		case "/RequestData":
			atomic.AddInt32(&dataCalls, 1)
			if r.Header.Get("Authorization") == "Bearer tok-1" {
				// First token is stale
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"contentResponse": content})
		}
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	records, err := client.RequestData(context.Background(), "MGP", "ME_ZonalPrices", time.Now())
	if err != nil {
		t.Fatalf("RequestData() failed: %v", err)
	}

	if len(records) != 1 {
		t.Errorf("expected 1 record, got %d", len(records))
	}
	if got := atomic.LoadInt32(&authCalls); got != 2 {
		t.Errorf("expected 2 auth calls, got %d", got)
	}
	if got := atomic.LoadInt32(&dataCalls); got != 2 {
		t.Errorf("expected 2 data calls, got %d", got)
	}
}

func TestTokenRefreshIsSingleFlight(t *testing.T) {
	var authCalls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Auth":
			atomic.AddInt32(&authCalls, 1)
			time.Sleep(20 * time.Millisecond) // widen the race window
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "token": "tok"})
		default:
			json.NewEncoder(w).Encode(map[string]string{"contentResponse": ""})
		}
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.RequestData(context.Background(), "MGP", "ME_ZonalPrices", time.Now()); err != nil {
				t.Errorf("RequestData() failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&authCalls); got != 1 {
		t.Errorf("expected a single auth call across concurrent fetches, got %d", got)
	}
}

func TestQuotas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Auth":
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "token": "tok"})
		case "/MyQuotas":
			json.NewEncoder(w).Encode(map[string]interface{}{"daily": 500, "used": 12})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	quotas, err := client.Quotas(context.Background())
	if err != nil {
		t.Fatalf("Quotas() failed: %v", err)
	}
	if quotas["daily"] != float64(500) {
		t.Errorf("daily = %v, want 500", quotas["daily"])
	}
}
