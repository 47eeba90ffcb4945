package gridshift_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/geal-ai/gridshift"
)

// gridServer serves files under /grids/ with range support. When ignoreRange
// is set it always answers with the whole body.
func gridServer(t *testing.T, files map[string][]byte, ignoreRange bool, requests *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			requests.Add(1)
		}
		data, ok := files[strings.TrimPrefix(r.URL.Path, "/grids/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if ignoreRange {
			w.WriteHeader(http.StatusOK)
			if r.Method != http.MethodHead {
				w.Write(data)
			}
			return
		}
		http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(data))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPStoreReadBlock(t *testing.T) {
	h := gridHeader(10)
	data := encodeGrid(t, h, surfaceValues(h))
	for _, ignoreRange := range []bool{false, true} {
		srv := gridServer(t, map[string][]byte{"a.b": data}, ignoreRange, nil)
		store := gridshift.NewHTTPStore(srv.URL + "/grids/")
		f, err := store.Open(context.Background(), "a.b")
		if err != nil {
			t.Fatalf("ignoreRange=%v: Open: %v", ignoreRange, err)
		}
		got, err := gridshift.ReadHeader(f, 64)
		if err != nil {
			t.Fatalf("ignoreRange=%v: ReadHeader: %v", ignoreRange, err)
		}
		blk, err := gridshift.ReadBlock(f, &got, 1, 1, 3, 3)
		if err != nil {
			t.Fatalf("ignoreRange=%v: ReadBlock: %v", ignoreRange, err)
		}
		if v := blk.At(1, 1); v != surface(2, 2) {
			t.Errorf("ignoreRange=%v: centre %g, want %g", ignoreRange, v, surface(2, 2))
		}
		f.Close()
	}
}

// TestHTTPStoreRangeRequests transfers only what each read asks for.
func TestHTTPStoreRangeRequests(t *testing.T) {
	data := bytes.Repeat([]byte{1, 2, 3, 4}, 1000)
	var n atomic.Int64
	srv := gridServer(t, map[string][]byte{"a.b": data}, false, &n)
	f, err := gridshift.NewHTTPStore(srv.URL+"/grids").Open(context.Background(), "a.b")
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 4)
	if _, err := f.ReadAt(buf, 2000); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, []byte{1, 2, 3, 4}) {
		t.Errorf("got % x", buf)
	}
	if got := n.Load(); got != 2 {
		t.Errorf("requests: got %d, want 2 (HEAD + GET)", got)
	}
}

// TestHTTPStoreShortRead reports EOF at the end of the file.
func TestHTTPStoreShortRead(t *testing.T) {
	srv := gridServer(t, map[string][]byte{"a.b": make([]byte, 10)}, false, nil)
	f, err := gridshift.NewHTTPStore(srv.URL+"/grids").Open(context.Background(), "a.b")
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 8)
	n, err := f.ReadAt(buf, 6)
	if n != 4 || err != io.EOF {
		t.Errorf("read at 6: got %d, %v; want 4, EOF", n, err)
	}
	if _, err := f.ReadAt(buf, 100); err != io.EOF {
		t.Errorf("read past end: got %v, want EOF", err)
	}
}

func TestHTTPStoreNotFound(t *testing.T) {
	srv := gridServer(t, nil, false, nil)
	_, err := gridshift.NewHTTPStore(srv.URL+"/grids").Open(context.Background(), "missing.b")
	if !errors.Is(err, gridshift.ErrGridNotFound) {
		t.Errorf("got %v, want ErrGridNotFound", err)
	}
}

// TestEngineOverHTTP runs a lookup against a remote grid.
func TestEngineOverHTTP(t *testing.T) {
	def := testDefinition(t, t.TempDir())
	h := gridHeader(10)
	name, err := def.FileName(conusID)
	if err != nil {
		t.Fatal(err)
	}
	srv := gridServer(t, map[string][]byte{name: encodeGrid(t, h, surfaceValues(h))}, false, nil)
	eng := gridshift.NewEngine(def, gridshift.NewHTTPStore(srv.URL+"/grids"), gridshift.WithLogger(quietLogger()))
	r, err := eng.Interpolate(context.Background(), conusID, 10.8, -99.2)
	if err != nil {
		t.Fatal(err)
	}
	if r.Rank != gridshift.RankFull {
		t.Errorf("rank %v, want full", r.Rank)
	}
}
