package extract

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ziadkadry99/ripview/internal/layers"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 5*time.Second)
}

func TestUploadSendsMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/upload" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(f)
		if hdr.Filename != "report.pdf" || string(data) != "%PDF-1.7" {
			t.Errorf("unexpected upload %q %q", hdr.Filename, data)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"page_count": 3,
			"metadata":   map[string]any{"Title": "Report"},
			"filename":   "report.pdf",
		})
	})

	res, err := c.Upload(context.Background(), "report.pdf", strings.NewReader("%PDF-1.7"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.PageCount != 3 || res.Filename != "report.pdf" || res.Metadata["Title"] != "Report" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestLayerDecodesRecords(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pages/2/words" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":[{"text":"hello","x0":1,"x1":20,"top":5,"bottom":15,"doctop":805,"upright":true}],"timing_ms":0.42}`))
	})

	res, err := c.Layer(context.Background(), 2, layers.Words)
	if err != nil {
		t.Fatalf("Layer: %v", err)
	}
	if res.TimingMS != 0.42 || len(res.Records) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if w := res.Records[0].(layers.Word); w.Text != "hello" || w.X1 != 20 {
		t.Errorf("unexpected word %+v", w)
	}
}

func TestLayerRefusesSearch(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second)
	if _, err := c.Layer(context.Background(), 1, layers.Search); err == nil {
		t.Error("expected error for search layer")
	}
}

func TestSearchAndTextQueryParams(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/pages/1/search":
			if got := r.URL.Query().Get("q"); got != "total due" {
				t.Errorf("q=%q", got)
			}
			w.Write([]byte(`{"data":[{"text":"total due","x0":1,"top":2,"x1":3,"bottom":4,"page_number":1}],"timing_ms":1}`))
		case "/api/pages/1/text":
			if got := r.URL.Query().Get("layout"); got != "true" {
				t.Errorf("layout=%q", got)
			}
			w.Write([]byte(`{"text":"hi","timing_ms":2}`))
		default:
			http.NotFound(w, r)
		}
	})

	res, err := c.Search(context.Background(), 1, "total due")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if m := res.Records[0].(layers.SearchMatch); m.PageNumber != 1 {
		t.Errorf("unexpected match %+v", m)
	}

	txt, err := c.PageText(context.Background(), 1, true)
	if err != nil {
		t.Fatalf("PageText: %v", err)
	}
	if txt.Text != "hi" {
		t.Errorf("unexpected text %q", txt.Text)
	}
}

func TestRejectedCarriesDetailVerbatim(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Page 9 not found (1-3)"}`))
	})

	_, err := c.PageInfo(context.Background(), 9)
	var re *RejectedError
	if !errors.As(err, &re) {
		t.Fatalf("expected RejectedError, got %T %v", err, err)
	}
	if re.StatusCode != 404 || re.Detail != "Page 9 not found (1-3)" {
		t.Errorf("unexpected error %+v", re)
	}
	if IsTransport(err) {
		t.Error("rejection must not look like a transport failure")
	}
	if msg := UserMessage(err); msg != "Page 9 not found (1-3)" {
		t.Errorf("unexpected user message %q", msg)
	}
}

func TestRejectedStructuredDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":[{"loc":["query","q"],"msg":"field required"}]}`))
	})

	_, err := c.Search(context.Background(), 1, "x")
	var re *RejectedError
	if !errors.As(err, &re) {
		t.Fatalf("expected RejectedError, got %v", err)
	}
	if !strings.Contains(re.Detail, "field required") {
		t.Errorf("expected raw structured detail, got %q", re.Detail)
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second)
	_, err := c.Libraries(context.Background())
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if IsRejected(err) {
		t.Error("transport failure must not look like a rejection")
	}
	if msg := UserMessage(err); !strings.Contains(msg, "Start it") {
		t.Errorf("unexpected user message %q", msg)
	}
}

func TestBenchmark(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/benchmark/4" || r.URL.Query().Get("iterations") != "5" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.String())
		}
		w.Write([]byte(`{"ripdoc":{"extract_text":1.5},"pdfplumber":{"extract_text":30}}`))
	})

	res, err := c.Benchmark(context.Background(), 4, 5)
	if err != nil {
		t.Fatalf("Benchmark: %v", err)
	}
	if res["pdfplumber"]["extract_text"] != 30 {
		t.Errorf("unexpected result %v", res)
	}
}
