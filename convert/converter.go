// Package convert puts markup fragments into workbook cells and drives
// conversion of html documents into workbooks from command line.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"hxc/config"
	"hxc/css"
	"hxc/images"
	"hxc/intern"
	"hxc/links"
	"hxc/richtext"
	"hxc/workbook"
)

// Converter turns markup fragments into rich text cells of a single workbook.
// Background styles are workbook objects, so each workbook needs its own
// Converter. It is safe for concurrent use.
type Converter struct {
	cfg         *config.ConverterConfig
	book        *workbook.Book
	fonts       *intern.Cache[*richtext.Font]
	styles      *intern.Cache[int]
	compiler    *richtext.Compiler
	backgrounds *workbook.Backgrounds
	images      *images.Collector
	rpt         *config.Report
	log         *zap.Logger
}

// Option modifies Converter.
type Option func(*Converter)

// WithImages enables embedding of pictures referenced by fragments.
func WithImages(c *images.Collector) Option {
	return func(conv *Converter) { conv.images = c }
}

// WithReport makes Converter keep compiled fragments in debug report.
func WithReport(rpt *config.Report) Option {
	return func(conv *Converter) { conv.rpt = rpt }
}

// New creates Converter for book. Book may be nil when Converter is only used
// to compile fragments with ToRichText.
func New(book *workbook.Book, cfg *config.ConverterConfig, log *zap.Logger, opts ...Option) *Converter {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("converter")

	c := &Converter{
		cfg:    cfg,
		book:   book,
		fonts:  intern.New[*richtext.Font](cfg.EnableFontCache),
		styles: intern.New[int](cfg.EnableStyleCache),
		log:    log,
	}
	c.compiler = richtext.NewCompiler(c.fonts, richtext.Options{
		Units:         css.Units{PxToPt: cfg.PxToPt, MinFontSize: cfg.MinFontSize},
		ListNumbering: cfg.ListNumbering,
	}, log)
	c.backgrounds = workbook.NewBackgrounds(book, c.styles, log)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ToRichText compiles markup and limits result to configured cell length.
// Workbook is not touched and backgrounds are ignored.
func (c *Converter) ToRichText(markup string) (richtext.Fragment, error) {
	root, err := richtext.Parse(markup)
	if err != nil {
		return richtext.Fragment{}, err
	}
	frag, truncated := c.assemble(c.compiler.Compile(root, nil))
	if truncated {
		c.log.Debug("Fragment truncated", zap.Int("limit", c.cfg.MaxCellLength))
	}
	return frag, nil
}

// DumpTree describes how markup is seen by compiler, for troubleshooting.
func (c *Converter) DumpTree(markup string) (string, error) {
	root, err := richtext.Parse(markup)
	if err != nil {
		return "", err
	}
	return c.compiler.DumpTree(root), nil
}

func (c *Converter) assemble(frag richtext.Fragment) (richtext.Fragment, bool) {
	return richtext.Assemble(frag, c.cfg.MaxCellLength, c.cfg.TruncateSuffix, c.cfg.RunOverflow)
}

// ApplyToCell compiles markup and stores it into the cell together with
// background, first hyperlink and pictures of the fragment. Only problems
// with the cell itself are reported, everything else is logged and skipped.
// Truncated text is stored as rich text when runs are clipped and as plain
// string otherwise.
func (c *Converter) ApplyToCell(ctx context.Context, sheet, cell, markup string) error {
	if c.book == nil {
		return errors.New("converter is not attached to workbook")
	}
	if err := workbook.CheckCell(cell); err != nil {
		return err
	}
	s, err := c.book.Sheet(sheet)
	if err != nil {
		return err
	}

	root, err := richtext.Parse(markup)
	if err != nil {
		return fmt.Errorf("unable to parse markup for %s!%s: %w", sheet, cell, err)
	}

	var bgErr error
	frag, truncated := c.assemble(c.compiler.Compile(root, func(color string) {
		multierr.AppendInto(&bgErr, c.backgrounds.Apply(s, cell, color))
	}))
	if bgErr != nil {
		c.log.Warn("Unable to apply background", zap.String("sheet", sheet), zap.String("cell", cell), zap.Error(bgErr))
	}

	if truncated {
		c.log.Warn("Cell text truncated", zap.String("sheet", sheet), zap.String("cell", cell), zap.Int("limit", c.cfg.MaxCellLength))
	}
	if truncated && !c.cfg.RunOverflow.Clips() {
		err = s.SetString(cell, frag.Text)
	} else {
		err = s.SetRichText(cell, frag)
	}
	if err != nil {
		return err
	}

	if _, err := links.Apply(root, s, cell); err != nil {
		c.log.Warn("Unable to set hyperlink", zap.String("sheet", sheet), zap.String("cell", cell), zap.Error(err))
	}

	if c.rpt != nil {
		var buf bytes.Buffer
		if _, err := frag.WriteTo(&buf); err == nil {
			c.rpt.StoreData(fmt.Sprintf("fragments/%s-%s.txt", config.CleanFileName(sheet), cell), buf.Bytes())
		}
	}

	if c.images != nil {
		if err := c.images.Embed(ctx, root, s, cell); err != nil {
			return fmt.Errorf("embedding images into %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

// FontCacheSize returns number of distinct fonts created so far.
func (c *Converter) FontCacheSize() int {
	return c.fonts.Len()
}

// StyleCacheSize returns number of distinct background styles created so far.
func (c *Converter) StyleCacheSize() int {
	return c.styles.Len()
}

// ClearCaches drops interned fonts and styles. Styles already created in the
// workbook stay there.
func (c *Converter) ClearCaches() {
	c.fonts.Clear()
	c.styles.Clear()
}
