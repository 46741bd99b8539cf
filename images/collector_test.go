package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"
	"golang.org/x/image/bmp"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"hxc/config"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 200, 255})
		}
	}
	return img
}

func pngData(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

const testSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 50"><rect width="100" height="50" fill="red"/></svg>`

func testConfig() *config.ImagesConfig {
	return &config.ImagesConfig{
		EnableDownload: true,
		ConnectTimeout: time.Second,
		ReadTimeout:    2 * time.Second,
		Workers:        2,
		MaxSize:        1 << 20,
		JPEGQuality:    85,
		UserAgent:      "hxc-test",
	}
}

func parse(t *testing.T, markup string) *html.Node {
	t.Helper()
	nodes, err := html.ParseFragment(strings.NewReader(markup), &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body})
	if err != nil {
		t.Fatal(err)
	}
	root := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root
}

type placed struct {
	Cell string
	Rows int
	Ext  string
	W, H int
}

type recorder struct {
	mu  sync.Mutex
	got []placed
}

func (r *recorder) AddPicture(cell string, rows int, pic Picture) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, placed{cell, rows, pic.Ext, pic.Width, pic.Height})
	return nil
}

func TestSources(t *testing.T) {
	root := parse(t, `<p><img src=" a.png "><span><img></span></p><img src="b.png">`)
	want := []string{"a.png", "", "b.png"}
	if diff := cmp.Diff(want, Sources(root)); diff != "" {
		t.Errorf("Sources mismatch (-want +got):\n%s", diff)
	}
	if Sources(nil) != nil {
		t.Error("Sources(nil) is not nil")
	}
}

func TestEmbed(t *testing.T) {
	img := pngData(t, 40, 20)

	var agents sync.Map
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents.Store(r.UserAgent(), true)
		switch r.URL.Path {
		case "/ok.png":
			w.Write(img)
		case "/pic.svg":
			w.Write([]byte(testSVG))
		case "/text":
			w.Write([]byte("not an image at all"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	svgURI := "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(testSVG))
	root := parse(t, `<img src="`+srv.URL+`/ok.png"><img src="`+srv.URL+`/missing.png"><img src="`+srv.URL+`/text">`+
		`<img src="`+srv.URL+`/pic.svg"><img src="ftp://example.com/x.png"><img src="`+svgURI+`">`)

	c := NewCollector(testConfig(), NewPool(2), zaptest.NewLogger(t))
	rec := &recorder{}
	if err := c.Embed(context.Background(), root, rec, "B2"); err != nil {
		t.Fatalf("Embed() error: %v", err)
	}

	sort.Slice(rec.got, func(i, j int) bool { return rec.got[i].Rows < rec.got[j].Rows })
	want := []placed{
		{"B2", 0, ".png", 40, 20},
		{"B2", 3, ".png", 100, 50},
		{"B2", 5, ".png", 100, 50},
	}
	if diff := cmp.Diff(want, rec.got); diff != "" {
		t.Errorf("placed pictures mismatch (-want +got):\n%s", diff)
	}
	if _, ok := agents.Load("hxc-test"); !ok {
		t.Error("user agent was not sent")
	}
}

func TestEmbed_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.EnableDownload = false

	rec := &recorder{}
	root := parse(t, `<img src="data:image/png;base64,`+base64.StdEncoding.EncodeToString(pngData(t, 2, 2))+`">`)
	if err := NewCollector(cfg, nil, nil).Embed(context.Background(), root, rec, "A1"); err != nil {
		t.Fatal(err)
	}
	if len(rec.got) != 0 {
		t.Errorf("pictures embedded while disabled: %v", rec.got)
	}
}

func TestEmbed_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := testConfig()
	cfg.ReadTimeout = 100 * time.Millisecond

	rec := &recorder{}
	start := time.Now()
	if err := NewCollector(cfg, NewPool(1), nil).Embed(context.Background(), parse(t, `<img src="`+srv.URL+`/slow.png">`), rec, "A1"); err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("Embed() did not respect timeouts, took %v", time.Since(start))
	}
	if len(rec.got) != 0 {
		t.Errorf("unexpected pictures: %v", rec.got)
	}
}

func TestFetch_Normalize(t *testing.T) {
	var bmpBuf bytes.Buffer
	if err := bmp.Encode(&bmpBuf, testImage(30, 10)); err != nil {
		t.Fatal(err)
	}
	b64 := func(mime string, data []byte) string {
		return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	}

	tests := []struct {
		name     string
		src      string
		maxWidth int
		want     placed
		wantErr  bool
	}{
		{name: "png kept", src: b64("image/png", pngData(t, 50, 25)), want: placed{Ext: ".png", W: 50, H: 25}},
		{name: "png downsized", src: b64("image/png", pngData(t, 50, 25)), maxWidth: 10, want: placed{Ext: ".png", W: 10, H: 5}},
		{name: "bmp converted", src: b64("image/bmp", bmpBuf.Bytes()), want: placed{Ext: ".png", W: 30, H: 10}},
		{name: "svg plain", src: "data:image/svg+xml," + strings.ReplaceAll(testSVG, " ", "%20"), want: placed{Ext: ".png", W: 100, H: 50}},
		{name: "svg scaled", src: b64("image/svg+xml", []byte(testSVG)), maxWidth: 20, want: placed{Ext: ".png", W: 20, H: 10}},
		{name: "garbage", src: b64("image/png", []byte("nope")), wantErr: true},
		{name: "bad data uri", src: "data:image/png;base64", wantErr: true},
		{name: "bad scheme", src: "file:///etc/passwd", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.MaxWidth = tt.maxWidth

			pic, err := NewCollector(cfg, nil, nil).Fetch(context.Background(), tt.src)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch() error: %v", err)
			}
			got := placed{Ext: pic.Ext, W: pic.Width, H: pic.Height}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("picture mismatch (-want +got):\n%s", diff)
			}
			if _, _, err := image.DecodeConfig(bytes.NewReader(pic.Data)); err != nil {
				t.Errorf("result is not decodable: %v", err)
			}
			if strings.Contains(pic.Source, "base64,") && len(pic.Source) > 40 {
				t.Errorf("source not shortened: %q", pic.Source)
			}
		})
	}
}

func TestFetch_SizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte{0x89}, 4096))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxSize = 1024
	_, err := NewCollector(cfg, nil, nil).Fetch(context.Background(), srv.URL+"/big.png")
	if err == nil || !strings.Contains(err.Error(), "larger than") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestPool_Limit(t *testing.T) {
	p := NewPool(2)

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Do(context.Background(), func(context.Context) {
				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
			})
		}()
	}
	wg.Wait()

	if peak.Load() > 2 {
		t.Errorf("peak concurrency %d exceeds pool size 2", peak.Load())
	}
	if p.Size() != 2 {
		t.Errorf("Size() = %d", p.Size())
	}
}

func TestPool_Cancelled(t *testing.T) {
	p := NewPool(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// first acquisition may still succeed since capacity is free
	_ = p.Do(ctx, func(context.Context) {})

	block := make(chan struct{})
	go p.Do(context.Background(), func(context.Context) { <-block })
	time.Sleep(10 * time.Millisecond)
	defer close(block)

	called := false
	if err := p.Do(ctx, func(context.Context) { called = true }); err == nil || called {
		t.Errorf("Do() on cancelled context = %v, called %v", err, called)
	}
}
