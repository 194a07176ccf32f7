package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hollowtree-labs/harmonia/internal/shared"
)

func TestMusicBrainzService(t *testing.T) {
	t.Run("Resolves Canonical Name", func(t *testing.T) {
		wantAgent := fmt.Sprintf("%s/%s ( %s )", shared.AppName, shared.AppVersion, shared.AppURL)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/ws/2/artist/mbid-boc" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.URL.Query().Get("fmt") != "json" {
				t.Error("expected fmt=json query parameter")
			}
			if got := r.Header.Get("User-Agent"); got != wantAgent {
				t.Errorf("User-Agent = %q, want %q", got, wantAgent)
			}
			w.Write([]byte(`{"name": "Boards of Canada"}`))
		}))
		defer srv.Close()

		svc := NewMusicBrainzService(srv.URL, nil, testLogger())
		name, err := svc.ArtistName(context.Background(), "mbid-boc")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if name != "Boards of Canada" {
			t.Errorf("expected canonical name, got %q", name)
		}
	})

	t.Run("Missing Artist", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"Not Found"}`, http.StatusNotFound)
		}))
		defer srv.Close()

		svc := NewMusicBrainzService(srv.URL, nil, testLogger())
		_, err := svc.ArtistName(context.Background(), "mbid-nope")

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", apiErr.StatusCode)
		}
	})

	t.Run("Blank Name Maps To Not Found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id": "mbid-blank"}`))
		}))
		defer srv.Close()

		svc := NewMusicBrainzService(srv.URL, nil, testLogger())
		_, err := svc.ArtistName(context.Background(), "mbid-blank")
		if !errors.Is(err, shared.ErrArtistNotFound) {
			t.Errorf("expected ErrArtistNotFound, got %v", err)
		}
	})

	t.Run("Transport Failure Wraps ErrAPIRequest", func(t *testing.T) {
		svc := NewMusicBrainzService("http://127.0.0.1:1", nil, testLogger())
		if _, err := svc.ArtistName(context.Background(), "mbid-x"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}
