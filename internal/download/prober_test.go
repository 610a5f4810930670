package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProbeRangeSupport(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    bool
	}{
		{
			"advertised via header",
			func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Accept-Ranges", "bytes")
			},
			true,
		},
		{
			"header rejects ranges",
			func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Accept-Ranges", "none")
			},
			false,
		},
		{
			"no header, partial content on test range",
			func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Range") != "" {
					w.Header().Set("Content-Range", "bytes 0-0/100")
					w.WriteHeader(http.StatusPartialContent)
					w.Write([]byte{0})
					return
				}
				w.Write(make([]byte, 100))
			},
			true,
		},
		{
			"no header, range ignored",
			func(w http.ResponseWriter, r *http.Request) {
				w.Write(make([]byte, 100))
			},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			mgr := testManager(t, fastPolicy(0))
			got, err := mgr.probeRangeSupport(context.Background(), srv.URL)
			if err != nil {
				t.Fatalf("probeRangeSupport: %v", err)
			}
			if got != tt.want {
				t.Errorf("probeRangeSupport = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProbeRangeSupportUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	mgr := testManager(t, fastPolicy(0))
	if _, err := mgr.probeRangeSupport(context.Background(), url); err == nil {
		t.Error("expected error for unreachable server, got nil")
	}
}
