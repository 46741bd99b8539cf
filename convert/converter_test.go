package convert

import (
	"archive/zip"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap/zaptest"

	"hxc/common"
	"hxc/config"
	"hxc/workbook"
)

func testConfig() *config.ConverterConfig {
	return &config.ConverterConfig{
		MaxCellLength:    32767,
		TruncateSuffix:   "...(truncated)",
		EnableFontCache:  true,
		EnableStyleCache: true,
		ListNumbering:    common.ListNumberingNested,
		RunOverflow:      common.RunOverflowClip,
		PxToPt:           0.75,
		MinFontSize:      8,
	}
}

func newConverter(t *testing.T, cfg *config.ConverterConfig) (*Converter, *workbook.Sheet) {
	t.Helper()
	book := workbook.New(nil)
	t.Cleanup(func() { book.Close() })
	sheet, err := book.AddSheet("Test")
	if err != nil {
		t.Fatal(err)
	}
	return New(book, cfg, zaptest.NewLogger(t)), sheet
}

func TestConverter_ToRichText(t *testing.T) {
	c, _ := newConverter(t, testConfig())

	tests := []struct {
		name, markup, want string
	}{
		{"empty", "", ""},
		{"basic", "<p><b>Bold</b> <i>Italic</i> <u>Underline</u></p>", "Bold Italic Underline\n"},
		{"colored", "<span style='color:red'>Red Text</span>", "Red Text"},
		{"entities", "<p>Text with &nbsp; spaces and &lt;tags&gt;</p>", "Text with   spaces and <tags>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frag, err := c.ToRichText(tt.markup)
			if err != nil {
				t.Fatal(err)
			}
			if frag.Text != tt.want {
				t.Errorf("ToRichText() = %q, want %q", frag.Text, tt.want)
			}
		})
	}
}

func TestConverter_ToRichText_Truncates(t *testing.T) {
	cfg := testConfig()
	cfg.MaxCellLength = 20
	c, _ := newConverter(t, cfg)

	frag, err := c.ToRichText("<b>" + strings.Repeat("Text ", 100) + "</b>")
	if err != nil {
		t.Fatal(err)
	}
	if frag.Len() != 20 || !strings.HasSuffix(frag.Text, "...(truncated)") {
		t.Errorf("ToRichText() = %q", frag.Text)
	}
	for _, r := range frag.Runs {
		if r.End > 6 {
			t.Errorf("run %+v extends past kept text", r)
		}
	}
}

func TestConverter_ApplyToCell(t *testing.T) {
	c, sheet := newConverter(t, testConfig())
	ctx := context.Background()

	markup := `<div style="background-color:#FFFF00"><p><b>Product Name:</b> <span style='color:#0000FF'>Sample Item</span></p>` +
		`<p><a href="https://github.com">GitHub</a> <a href="https://example.com">Other</a></p></div>`
	if err := c.ApplyToCell(ctx, "Test", "A1", markup); err != nil {
		t.Fatal(err)
	}

	text, err := sheet.CellText("A1")
	if err != nil {
		t.Fatal(err)
	}
	for _, part := range []string{"Product Name:", "Sample Item", "GitHub"} {
		if !strings.Contains(text, part) {
			t.Errorf("cell text %q does not contain %q", text, part)
		}
	}

	url, ok, err := sheet.Hyperlink("A1")
	if err != nil || !ok || url != "https://github.com" {
		t.Errorf("Hyperlink() = %q, %v, %v", url, ok, err)
	}

	if c.StyleCacheSize() != 1 {
		t.Errorf("StyleCacheSize() = %d, want 1", c.StyleCacheSize())
	}
	if c.FontCacheSize() == 0 {
		t.Error("no fonts were interned")
	}

	// same fonts and backgrounds are reused
	fonts := c.FontCacheSize()
	if err := c.ApplyToCell(ctx, "Test", "A2", markup); err != nil {
		t.Fatal(err)
	}
	if c.FontCacheSize() != fonts || c.StyleCacheSize() != 1 {
		t.Errorf("caches grew: fonts %d -> %d, styles %d", fonts, c.FontCacheSize(), c.StyleCacheSize())
	}

	c.ClearCaches()
	if c.FontCacheSize() != 0 || c.StyleCacheSize() != 0 {
		t.Error("caches were not cleared")
	}
}

func TestConverter_ApplyToCell_Errors(t *testing.T) {
	c, _ := newConverter(t, testConfig())
	ctx := context.Background()

	if err := c.ApplyToCell(ctx, "Missing", "A1", "<b>x</b>"); !errors.Is(err, workbook.ErrNoSheet) {
		t.Errorf("missing sheet error = %v", err)
	}
	if err := c.ApplyToCell(ctx, "Test", "not a cell", "<b>x</b>"); err == nil {
		t.Error("bad cell was accepted")
	}
	// nothing in markup is reason to fail
	if err := c.ApplyToCell(ctx, "Test", "A1", `<p style="background-color:nonsense;font-size:huge">x<img src="">`); err != nil {
		t.Errorf("ApplyToCell() error: %v", err)
	}
}

func TestConverter_ApplyToCell_Truncated(t *testing.T) {
	long := "<p>" + strings.Repeat("Text ", 10000) + "</p>"

	for _, overflow := range []common.RunOverflow{common.RunOverflowClip, common.RunOverflowKeep} {
		t.Run(overflow.String(), func(t *testing.T) {
			cfg := testConfig()
			cfg.RunOverflow = overflow
			c, sheet := newConverter(t, cfg)

			if err := c.ApplyToCell(context.Background(), "Test", "B3", long); err != nil {
				t.Fatal(err)
			}
			text, err := sheet.CellText("B3")
			if err != nil {
				t.Fatal(err)
			}
			if n := utf8.RuneCountInString(text); n != 32767 {
				t.Errorf("cell holds %d characters, want 32767", n)
			}
			if !strings.HasSuffix(text, "...(truncated)") {
				t.Errorf("cell text has no suffix: ...%q", text[len(text)-20:])
			}
		})
	}
}

func TestConverter_Report(t *testing.T) {
	name := filepath.Join(t.TempDir(), "report.zip")
	rpt, err := (&config.ReporterConfig{Destination: name}).Prepare()
	if err != nil {
		t.Fatal(err)
	}

	book := workbook.New(nil)
	defer book.Close()
	if _, err := book.AddSheet("S"); err != nil {
		t.Fatal(err)
	}
	c := New(book, testConfig(), nil, WithReport(rpt))
	if err := c.ApplyToCell(context.Background(), "S", "C7", "<i>x</i>"); err != nil {
		t.Fatal(err)
	}
	if err := rpt.Close(); err != nil {
		t.Fatal(err)
	}

	zr, err := zip.OpenReader(name)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name == "fragments/S-C7.txt" {
			return
		}
	}
	t.Error("compiled fragment is not in the report")
}
