// Package images finds pictures referenced by markup fragment, downloads them
// and prepares them for embedding into workbook.
package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/h2non/filetype"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"hxc/config"
)

// Picture is image ready to be placed into workbook.
type Picture struct {
	Data   []byte
	Ext    string // with leading dot
	Source string
	Width  int
	Height int
}

// Target receives prepared pictures. Picture number i of the fragment is
// anchored i rows below cell.
type Target interface {
	AddPicture(cell string, rows int, pic Picture) error
}

// Collector downloads and embeds pictures.
type Collector struct {
	cfg    *config.ImagesConfig
	pool   *Pool
	client *http.Client
	log    *zap.Logger
}

// NewCollector creates collector using pool to bound concurrent downloads.
func NewCollector(cfg *config.ImagesConfig, pool *Pool, log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	if pool == nil {
		pool = NewPool(cfg.PoolSize())
	}

	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
	}
	return &Collector{
		cfg:    cfg,
		pool:   pool,
		client: &http.Client{Transport: transport, Timeout: cfg.ConnectTimeout + cfg.ReadTimeout},
		log:    log.Named("images"),
	}
}

// Sources returns src attributes of all img elements under root in document
// order. Images without source are present as empty strings so positions
// are kept.
func Sources(root *html.Node) []string {
	if root == nil {
		return nil
	}
	var srcs []string
	goquery.NewDocumentFromNode(root).Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		srcs = append(srcs, strings.TrimSpace(src))
	})
	return srcs
}

// Embed downloads all pictures of the fragment in parallel and hands them to
// target. Whole batch is limited to twice the read timeout. Failed pictures
// are logged and skipped, only cancellation of ctx is reported.
func (c *Collector) Embed(ctx context.Context, root *html.Node, target Target, cell string) error {
	if !c.cfg.EnableDownload {
		return nil
	}
	srcs := Sources(root)
	if len(srcs) == 0 {
		return nil
	}

	batchCtx, cancel := context.WithTimeout(ctx, 2*c.cfg.ReadTimeout)
	defer cancel()

	pics := make([]*Picture, len(srcs))
	errs := make([]error, len(srcs))

	var g errgroup.Group
	for i, src := range srcs {
		if len(src) == 0 {
			continue
		}
		g.Go(func() error {
			return c.pool.Do(batchCtx, func(ctx context.Context) {
				pics[i], errs[i] = c.Fetch(ctx, src)
			})
		})
	}
	if err := g.Wait(); err != nil {
		c.log.Warn("Image batch did not complete in time", zap.String("cell", cell), zap.Error(err))
	}

	var failed error
	embedded := 0
	for i, pic := range pics {
		if errs[i] != nil {
			failed = multierr.Append(failed, fmt.Errorf("image %d (%s): %w", i, shorten(srcs[i]), errs[i]))
			continue
		}
		if pic == nil {
			continue
		}
		if err := target.AddPicture(cell, i, *pic); err != nil {
			failed = multierr.Append(failed, fmt.Errorf("image %d (%s): %w", i, shorten(srcs[i]), err))
			continue
		}
		embedded++
		c.log.Debug("Image embedded", zap.String("cell", cell), zap.Int("index", i), zap.String("src", shorten(srcs[i])),
			zap.String("size", humanize.Bytes(uint64(len(pic.Data)))))
	}
	if failed != nil {
		c.log.Warn("Some images were not embedded", zap.String("cell", cell), zap.Int("embedded", embedded), zap.Error(failed))
	}
	return ctx.Err()
}

// Fetch loads picture from src, which could be http(s) URL or data URI, and
// converts it to format workbook could hold.
func (c *Collector) Fetch(ctx context.Context, src string) (*Picture, error) {
	data, err := c.load(ctx, src)
	if err != nil {
		return nil, err
	}
	pic, err := c.normalize(data)
	if err != nil {
		return nil, err
	}
	pic.Source = shorten(src)
	return pic, nil
}

func (c *Collector) load(ctx context.Context, src string) ([]byte, error) {
	if strings.HasPrefix(strings.ToLower(src), "data:") {
		return decodeDataURI(src)
	}

	u, err := url.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("bad image url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported image url scheme '%s'", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if auth := c.cfg.Authorization.Value(); len(auth) > 0 {
		req.Header.Set("Authorization", auth)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected response status %s", resp.Status)
	}

	limit := int64(c.cfg.MaxSize)
	if limit <= 0 {
		limit = math.MaxInt64 - 1
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("unable to read image: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("image is larger than %s", humanize.Bytes(uint64(limit)))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	return data, nil
}

// normalize keeps PNG, JPEG and GIF as is unless they have to be downsized,
// everything else is converted to PNG.
func (c *Collector) normalize(data []byte) (*Picture, error) {
	kind, _ := filetype.Match(data)

	var keep imaging.Format
	switch kind.MIME.Value {
	case "image/png":
		keep = imaging.PNG
	case "image/jpeg":
		keep = imaging.JPEG
	case "image/gif":
		keep = imaging.GIF
	case "image/webp", "image/tiff", "image/bmp":
		img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err != nil {
			return nil, fmt.Errorf("unable to decode %s: %w", kind.MIME.Value, err)
		}
		return c.encode(c.fit(img), imaging.PNG)
	default:
		if !isSVG(data) {
			return nil, fmt.Errorf("unsupported image type '%s'", kind.MIME.Value)
		}
		img, err := rasterizeSVG(data, c.cfg.MaxWidth)
		if err != nil {
			return nil, fmt.Errorf("unable to rasterize svg: %w", err)
		}
		return c.encode(img, imaging.PNG)
	}

	ic, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to decode %s: %w", kind.MIME.Value, err)
	}
	if c.cfg.MaxWidth <= 0 || ic.Width <= c.cfg.MaxWidth {
		return &Picture{Data: data, Ext: "." + kind.Extension, Width: ic.Width, Height: ic.Height}, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("unable to decode %s: %w", kind.MIME.Value, err)
	}
	return c.encode(c.fit(img), keep)
}

func (c *Collector) fit(img image.Image) image.Image {
	if c.cfg.MaxWidth <= 0 || img.Bounds().Dx() <= c.cfg.MaxWidth {
		return img
	}
	return imaging.Resize(img, c.cfg.MaxWidth, 0, imaging.Lanczos)
}

func (c *Collector) encode(img image.Image, format imaging.Format) (*Picture, error) {
	var (
		buf  = new(bytes.Buffer)
		opts []imaging.EncodeOption
		ext  string
	)
	switch format {
	case imaging.JPEG:
		q := c.cfg.JPEGQuality
		if q <= 0 {
			q = 85
		}
		opts, ext = append(opts, imaging.JPEGQuality(q)), ".jpg"
	case imaging.GIF:
		ext = ".gif"
	default:
		opts, ext = append(opts, imaging.PNGCompressionLevel(png.BestCompression)), ".png"
	}
	if err := imaging.Encode(buf, img, format, opts...); err != nil {
		return nil, fmt.Errorf("unable to encode image: %w", err)
	}
	b := img.Bounds()
	return &Picture{Data: buf.Bytes(), Ext: ext, Width: b.Dx(), Height: b.Dy()}, nil
}

// shorten keeps data URIs from flooding logs.
func shorten(src string) string {
	if strings.HasPrefix(strings.ToLower(src), "data:") {
		if head, _, ok := strings.Cut(src, ","); ok {
			return head + ",..."
		}
	}
	return src
}
