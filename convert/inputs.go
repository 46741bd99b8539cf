package convert

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"hxc/archive"
	"hxc/state"
)

// document is single html input, name is relative to the source path.
type document struct {
	name   string
	markup string
}

func isHTMLName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

// readMarkup decodes html document. Unless encoding is forced it is detected
// from BOM and meta tags, defaulting to UTF-8 for valid input.
func readMarkup(r io.Reader, forced encoding.Encoding) (string, error) {
	var (
		dr  io.Reader
		err error
	)
	if forced != nil {
		dr = transform.NewReader(r, forced.NewDecoder())
	} else if dr, err = charset.NewReader(r, "text/html"); err != nil {
		return "", fmt.Errorf("unable to detect document encoding: %w", err)
	}
	data, err := io.ReadAll(dr)
	if err != nil {
		return "", fmt.Errorf("unable to read document: %w", err)
	}
	return string(data), nil
}

// collect finds html documents under src, which could be a file, a directory
// or an archive with optional path inside it. It returns the part of src
// which exists on disk together with documents in natural order of their
// names.
func collect(ctx context.Context, src string, log *zap.Logger) (string, []document, error) {
	var (
		head, tail string
		docs       []document
		err        error
	)
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, serr := os.Stat(head)
		if serr != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return "", nil, fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			docs, err = collectDir(ctx, head, log)
			break
		}

		if !fi.Mode().IsRegular() {
			return "", nil, fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, aerr := archive.IsArchive(head)
		if aerr != nil {
			return "", nil, fmt.Errorf("unable to check archive type: %w", aerr)
		}
		if isArchive {
			// path inside archive always uses forward slashes
			tail = filepath.ToSlash(strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator)))
			docs, err = collectArchive(ctx, head, tail, "", log)
			break
		}

		if len(tail) != 0 || !isHTMLName(head) {
			return "", nil, fmt.Errorf("input was not recognized as html document (%s)", head)
		}
		var doc document
		if doc, err = readFile(ctx, head, filepath.Base(head)); err == nil {
			docs = append(docs, doc)
		}
		break
	}
	if len(head) == 0 {
		return "", nil, fmt.Errorf("input source was not found (%s)", src)
	}
	if err != nil {
		return "", nil, err
	}

	sort.SliceStable(docs, func(i, j int) bool { return natural.Less(docs[i].name, docs[j].name) })
	return head, docs, nil
}

func readFile(ctx context.Context, path, name string) (document, error) {
	f, err := os.Open(path)
	if err != nil {
		return document{}, err
	}
	defer f.Close()

	markup, err := readMarkup(f, state.EnvFromContext(ctx).Charset)
	if err != nil {
		return document{}, fmt.Errorf("%s: %w", path, err)
	}
	return document{name: name, markup: markup}, nil
}

// collectDir walks directory tree finding html files and archives. Symbolic
// links are not followed.
func collectDir(ctx context.Context, dir string, log *zap.Logger) ([]document, error) {
	var docs []document
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))

		isArchive, err := archive.IsArchive(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if isArchive {
			found, err := collectArchive(ctx, path, "", rel, log)
			if err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
				return nil
			}
			docs = append(docs, found...)
			return nil
		}

		if !isHTMLName(path) {
			log.Debug("Skipping file, not recognized as html document or archive", zap.String("file", path))
			return nil
		}
		doc, err := readFile(ctx, path, filepath.ToSlash(rel))
		if err != nil {
			log.Error("Unable to read file", zap.String("file", path), zap.Error(err))
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err == nil && len(docs) == 0 {
		log.Debug("Nothing to process", zap.String("dir", dir))
	}
	return docs, err
}

// collectArchive reads html files inside archive located under pathIn. Names
// of documents are prefixed with pathOut.
func collectArchive(ctx context.Context, path, pathIn, pathOut string, log *zap.Logger) ([]document, error) {
	env := state.EnvFromContext(ctx)

	var docs []document
	err := archive.Walk(path, pathIn, isHTMLName, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		r, err := f.Open()
		if err != nil {
			log.Error("Unable to read file in archive",
				zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		defer r.Close()

		markup, err := readMarkup(r, env.Charset)
		if err != nil {
			log.Error("Unable to read file in archive",
				zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(err))
			return nil
		}

		pathInArchive := f.FileHeader.Name
		if env.CodePage != nil && f.FileHeader.NonUTF8 {
			// forcing zip file name encoding
			if n, err := env.CodePage.NewDecoder().String(pathInArchive); err == nil {
				pathInArchive = n
			} else {
				n, _ = ianaindex.IANA.Name(env.CodePage)
				log.Warn("Unable to convert archive name from specified encoding",
					zap.String("charset", n), zap.String("path", pathInArchive), zap.Error(err))
			}
		}
		docs = append(docs, document{name: filepath.ToSlash(filepath.Join(pathOut, pathInArchive)), markup: markup})
		return nil
	})
	if err == nil && len(docs) == 0 {
		log.Debug("Nothing to process", zap.String("archive", path))
	}
	return docs, err
}
