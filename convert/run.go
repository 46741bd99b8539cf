package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/dustin/go-humanize"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"hxc/images"
	"hxc/state"
	"hxc/workbook"
)

// Column layout of produced sheets.
const (
	nameColumn    = "A"
	contentColumn = "B"
	firstDataRow  = 2
)

// Run is "convert" command action: it puts html documents found under SOURCE
// into cells of a single workbook sheet, one document per row.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) > 0 {
		if dst, err = filepath.Abs(dst); err != nil {
			return err
		}
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.Overwrite, env.Append = cmd.Bool("overwrite"), cmd.Bool("append")
	env.SheetName = cmd.String("sheet")

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	env.CodePage = lookupCharset(cmd.String("force-zip-cp"), "Forcefully converting all non UTF-8 file names in archives", log)
	env.Charset = lookupCharset(cmd.String("charset"), "Forcefully decoding all input documents", log)

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

func lookupCharset(name, msg string, log *zap.Logger) encoding.Encoding {
	if len(name) == 0 {
		return nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", name), zap.Error(err))
		return nil
	}
	n, _ := ianaindex.IANA.Name(enc)
	log.Debug(msg, zap.String("charset", n))
	return enc
}

// process handles the core conversion logic independently of CLI framework.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	head, docs, err := collect(ctx, src, log)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no html documents found (%s)", src)
	}

	outputName, err := buildOutputPath(head, dst, env.Cfg.Output.OutputNameTemplate, len(docs))
	if err != nil {
		return fmt.Errorf("unable to build output name: %w", err)
	}
	sheetName, err := buildSheetName(head, env.SheetName, env.Cfg.Output.SheetNameTemplate, len(docs))
	if err != nil {
		return fmt.Errorf("unable to build sheet name: %w", err)
	}

	book, err := openBook(outputName, env, log)
	if err != nil {
		return err
	}
	defer book.Close()

	sheet, err := book.AddSheet(sheetName)
	if err != nil {
		return err
	}
	if err := prepareSheet(sheet); err != nil {
		return fmt.Errorf("unable to prepare sheet: %w", err)
	}

	conv := New(book, &env.Cfg.Converter, log,
		WithImages(images.NewCollector(&env.Cfg.Images, env.ImagePool(), log)),
		WithReport(env.Rpt))

	failed := convertDocuments(ctx, conv, sheet, docs, log)
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := book.SaveAs(outputName); err != nil {
		return err
	}
	env.Rpt.Store("result"+filepath.Ext(outputName), outputName)

	size := "unknown"
	if fi, err := os.Stat(outputName); err == nil {
		size = humanize.Bytes(uint64(fi.Size()))
	}
	log.Info("Workbook written",
		zap.String("file", outputName), zap.String("sheet", sheet.Name()), zap.String("size", size),
		zap.Int("documents", len(docs)), zap.Int("failed", len(multierr.Errors(failed))),
		zap.Int("fonts", conv.FontCacheSize()), zap.Int("styles", conv.StyleCacheSize()))

	if failed != nil {
		return fmt.Errorf("some documents were not converted: %w", failed)
	}
	return nil
}

// openBook prepares destination workbook according to requested mode.
func openBook(outputName string, env *state.LocalEnv, log *zap.Logger) (*workbook.Book, error) {
	if _, err := os.Stat(outputName); err == nil {
		switch {
		case env.Append:
			log.Debug("Appending to existing workbook", zap.String("file", outputName))
			return workbook.Open(outputName, log)
		case env.Overwrite:
			log.Warn("Overwriting existing file", zap.String("file", outputName))
			if err := os.Remove(outputName); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("output file already exists: %s", outputName)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return nil, fmt.Errorf("unable to create output directory: %w", err)
	}
	return workbook.New(log), nil
}

func prepareSheet(sheet *workbook.Sheet) error {
	if err := sheet.SetString(nameColumn+"1", "Source"); err != nil {
		return err
	}
	if err := sheet.SetString(contentColumn+"1", "Content"); err != nil {
		return err
	}
	if err := sheet.SetColWidth(nameColumn, nameColumn, 30); err != nil {
		return err
	}
	return sheet.SetColWidth(contentColumn, contentColumn, 80)
}

// convertDocuments fills one row per document in parallel. Failures of
// individual documents do not stop the others and are returned combined.
func convertDocuments(ctx context.Context, conv *Converter, sheet *workbook.Sheet, docs []document, log *zap.Logger) error {
	errs := make([]error, len(docs))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, doc := range docs {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			errs[i] = convertDocument(ctx, conv, sheet, firstDataRow+i, doc, log)
			return nil
		})
	}
	_ = g.Wait()
	return multierr.Combine(errs...)
}

func convertDocument(ctx context.Context, conv *Converter, sheet *workbook.Sheet, row int, doc document, log *zap.Logger) (rerr error) {
	cell := fmt.Sprintf("%s%d", contentColumn, row)

	log.Debug("Conversion starting", zap.String("from", doc.name), zap.String("cell", cell))
	defer func(start time.Time) {
		// NOTE: some of golang graphic processing libraries are not mature
		// enough, if multiple documents are being processed we do not want to
		// stop.
		if r := recover(); r != nil {
			log.Error("Conversion ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("from", doc.name), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("%s: conversion panic: %v", doc.name, r)
		} else if rerr != nil {
			log.Error("Unable to convert document", zap.String("from", doc.name), zap.Error(rerr))
		} else {
			log.Debug("Conversion completed", zap.Duration("elapsed", time.Since(start)), zap.String("from", doc.name), zap.String("cell", cell))
		}
	}(time.Now())

	if err := sheet.SetString(fmt.Sprintf("%s%d", nameColumn, row), doc.name); err != nil {
		return fmt.Errorf("%s: %w", doc.name, err)
	}
	if err := conv.ApplyToCell(ctx, sheet.Name(), cell, doc.markup); err != nil {
		return fmt.Errorf("%s: %w", doc.name, err)
	}
	return nil
}
