package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/income-clean/internal/pipeline"
	"github.com/income-clean/internal/record"
	"github.com/income-clean/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.MemRawSource, *store.MemCleanStore, chan record.RawRecord) {
	t.Helper()
	raw := store.NewMemRawSource()
	clean := store.NewMemCleanStore()
	pipe := pipeline.New(raw, clean, pipeline.Options{})
	inserts := make(chan record.RawRecord, 8)
	srv := NewServer("127.0.0.1", 0, nil, raw, pipe, inserts)
	return srv, raw, clean, inserts
}

func TestHandleIngest(t *testing.T) {
	srv, raw, _, inserts := newTestServer(t)

	body := `{"id": 7, "state_name": "georia", "county": "cobb", "type": "CPD", "state_ab": "GA"}`
	req := httptest.NewRequest("POST", "/api/records", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/records = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body)
	}
	if n, _ := raw.Count(req.Context()); n != 1 {
		t.Errorf("raw source has %d rows, want 1", n)
	}

	select {
	case got := <-inserts:
		if got.ID != 7 || got.RowID == 0 {
			t.Errorf("notification = %+v, want stored row with ID 7", got)
		}
	default:
		t.Error("no insert notification emitted")
	}
}

func TestHandleIngestRejectsInvalid(t *testing.T) {
	srv, raw, _, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing id", `{"state_name": "Georgia"}`},
		{"bad latitude", `{"id": 3, "lat": 123}`},
		{"malformed json", `{"id": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/records", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("POST /api/records = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}

	if n, _ := raw.Count(context.Background()); n != 0 {
		t.Errorf("raw source has %d rows, want 0", n)
	}
}

func TestHandleClean(t *testing.T) {
	srv, _, clean, _ := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/records",
		strings.NewReader(`{"id": 1, "state_name": "georia", "type": "CPD", "county": "cobb"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seeding ingest failed: %d", rec.Code)
	}

	req = httptest.NewRequest("POST", "/api/clean", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("POST /api/clean = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body)
	}

	all, _ := clean.All(req.Context())
	if len(all) != 1 || all[0].StateName != "GEORGIA" {
		t.Errorf("cleaned store after trigger = %+v, want one GEORGIA row", all)
	}
}
