// Package workbook is spreadsheet host for compiled fragments: it writes rich
// text, plain strings, hyperlinks, backgrounds and pictures into xlsx
// workbooks.
package workbook

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"hxc/images"
	"hxc/richtext"
)

// ErrNoSheet is returned when requested sheet does not exist.
var ErrNoSheet = errors.New("sheet does not exist")

// Book is xlsx workbook. All operations are serialized, so it could be used
// from multiple goroutines.
type Book struct {
	mu  sync.Mutex
	f   *excelize.File
	log *zap.Logger

	// first sheet of a new workbook is renamed instead of adding one
	pristine bool
}

// New creates empty workbook.
func New(log *zap.Logger) *Book {
	if log == nil {
		log = zap.NewNop()
	}
	return &Book{f: excelize.NewFile(), log: log.Named("workbook"), pristine: true}
}

// Open reads existing workbook from file.
func Open(path string, log *zap.Logger) (*Book, error) {
	if log == nil {
		log = zap.NewNop()
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open workbook '%s': %w", path, err)
	}
	return &Book{f: f, log: log.Named("workbook")}, nil
}

// Sheet returns existing sheet.
func (b *Book) Sheet(name string) (*Sheet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx, err := b.f.GetSheetIndex(name)
	if err != nil {
		return nil, fmt.Errorf("bad sheet name '%s': %w", name, err)
	}
	if idx < 0 {
		return nil, fmt.Errorf("'%s': %w", name, ErrNoSheet)
	}
	return &Sheet{book: b, name: name}, nil
}

// AddSheet creates new sheet or returns existing one with the same name.
func (b *Book) AddSheet(name string) (*Sheet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if idx, err := b.f.GetSheetIndex(name); err == nil && idx >= 0 {
		b.pristine = false
		return &Sheet{book: b, name: name}, nil
	}

	if b.pristine {
		b.pristine = false
		if err := b.f.SetSheetName(b.f.GetSheetName(0), name); err != nil {
			return nil, fmt.Errorf("unable to name sheet '%s': %w", name, err)
		}
		return &Sheet{book: b, name: name}, nil
	}

	idx, err := b.f.NewSheet(name)
	if err != nil {
		return nil, fmt.Errorf("unable to add sheet '%s': %w", name, err)
	}
	b.f.SetActiveSheet(idx)
	return &Sheet{book: b, name: name}, nil
}

// SheetNames lists sheets in workbook order.
func (b *Book) SheetNames() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.f.GetSheetList()
}

// SaveAs writes workbook to file.
func (b *Book) SaveAs(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.f.SaveAs(path); err != nil {
		return fmt.Errorf("unable to save workbook '%s': %w", path, err)
	}
	return nil
}

// WriteTo writes workbook in xlsx format, implementing io.WriterTo.
func (b *Book) WriteTo(w io.Writer) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, err := b.f.WriteToBuffer()
	if err != nil {
		return 0, fmt.Errorf("unable to serialize workbook: %w", err)
	}
	return buf.WriteTo(w)
}

// Close releases temporary resources.
func (b *Book) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.f.Close()
}

// Sheet is handle to one worksheet of a Book.
type Sheet struct {
	book *Book
	name string
}

// Name returns sheet name.
func (s *Sheet) Name() string {
	return s.name
}

// Book returns workbook sheet belongs to.
func (s *Sheet) Book() *Book {
	return s.book
}

// CheckCell validates cell reference.
func CheckCell(cell string) error {
	if _, _, err := excelize.CellNameToCoordinates(cell); err != nil {
		return fmt.Errorf("bad cell reference '%s': %w", cell, err)
	}
	return nil
}

// Offset returns reference of the cell rows below cell.
func Offset(cell string, rows int) (string, error) {
	col, row, err := excelize.CellNameToCoordinates(cell)
	if err != nil {
		return "", fmt.Errorf("bad cell reference '%s': %w", cell, err)
	}
	return excelize.CoordinatesToCellName(col, row+rows)
}

// SetRichText stores fragment as rich text value of the cell.
func (s *Sheet) SetRichText(cell string, frag richtext.Fragment) error {
	segments := frag.Segments()
	runs := make([]excelize.RichTextRun, 0, len(segments))
	for _, seg := range segments {
		runs = append(runs, excelize.RichTextRun{Text: seg.Text, Font: excelFont(seg.Font)})
	}

	s.book.mu.Lock()
	defer s.book.mu.Unlock()

	if len(runs) == 0 {
		return s.setString(cell, "")
	}
	err := s.book.f.SetCellRichText(s.name, cell, runs)
	if errors.Is(err, excelize.ErrCellCharsLength) {
		// rich text limit is checked in bytes, plain strings are cut to characters
		s.book.log.Debug("Rich text is too long, storing plain string", zap.String("sheet", s.name), zap.String("cell", cell))
		return s.setString(cell, frag.Text)
	}
	if err != nil {
		return fmt.Errorf("unable to set rich text of %s!%s: %w", s.name, cell, err)
	}
	return nil
}

func excelFont(f *richtext.Font) *excelize.Font {
	if f == nil {
		return nil
	}
	ef := &excelize.Font{
		Bold:   f.Bold,
		Italic: f.Italic,
		Family: f.Family,
		Size:   f.Size,
		Color:  f.Color,
	}
	if f.Underline {
		ef.Underline = "single"
	}
	return ef
}

// SetString stores plain text value of the cell.
func (s *Sheet) SetString(cell, value string) error {
	s.book.mu.Lock()
	defer s.book.mu.Unlock()
	return s.setString(cell, value)
}

func (s *Sheet) setString(cell, value string) error {
	if err := s.book.f.SetCellStr(s.name, cell, value); err != nil {
		return fmt.Errorf("unable to set value of %s!%s: %w", s.name, cell, err)
	}
	return nil
}

// CellText returns text value of the cell, mostly useful for inspection.
func (s *Sheet) CellText(cell string) (string, error) {
	s.book.mu.Lock()
	defer s.book.mu.Unlock()
	return s.book.f.GetCellValue(s.name, cell)
}

// SetHyperlink makes cell an external link.
func (s *Sheet) SetHyperlink(cell, url string) error {
	s.book.mu.Lock()
	defer s.book.mu.Unlock()

	if err := s.book.f.SetCellHyperLink(s.name, cell, url, "External"); err != nil {
		return fmt.Errorf("unable to set hyperlink of %s!%s: %w", s.name, cell, err)
	}
	return nil
}

// Hyperlink returns link target of the cell if any.
func (s *Sheet) Hyperlink(cell string) (string, bool, error) {
	s.book.mu.Lock()
	defer s.book.mu.Unlock()

	ok, target, err := s.book.f.GetCellHyperLink(s.name, cell)
	return target, ok, err
}

// AddPicture anchors picture at the cell rows below cell.
func (s *Sheet) AddPicture(cell string, rows int, pic images.Picture) error {
	at, err := Offset(cell, rows)
	if err != nil {
		return err
	}

	s.book.mu.Lock()
	defer s.book.mu.Unlock()

	err = s.book.f.AddPictureFromBytes(s.name, at, &excelize.Picture{
		Extension: pic.Ext,
		File:      pic.Data,
		Format: &excelize.GraphicOptions{
			AltText:         pic.Source,
			AutoFit:         true,
			LockAspectRatio: true,
			Positioning:     "oneCell",
		},
	})
	if err != nil {
		return fmt.Errorf("unable to add picture to %s!%s: %w", s.name, at, err)
	}
	return nil
}

// Pictures returns number of pictures anchored at the cell.
func (s *Sheet) Pictures(cell string) (int, error) {
	s.book.mu.Lock()
	defer s.book.mu.Unlock()

	pics, err := s.book.f.GetPictures(s.name, cell)
	return len(pics), err
}

// SetColWidth sets width of the columns range.
func (s *Sheet) SetColWidth(first, last string, width float64) error {
	s.book.mu.Lock()
	defer s.book.mu.Unlock()
	return s.book.f.SetColWidth(s.name, first, last, width)
}

// hasFill reports whether cell style already defines fill. Called with book
// lock held.
func (s *Sheet) hasFill(cell string) (bool, error) {
	id, err := s.book.f.GetCellStyle(s.name, cell)
	if err != nil {
		return false, fmt.Errorf("unable to get style of %s!%s: %w", s.name, cell, err)
	}
	if id == 0 {
		return false, nil
	}
	st, err := s.book.f.GetStyle(id)
	if err != nil {
		return false, fmt.Errorf("unable to get style %d: %w", id, err)
	}
	return st.Fill.Pattern != 0 || len(st.Fill.Color) > 0, nil
}
