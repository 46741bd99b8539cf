package workbook

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"hxc/css"
	"hxc/intern"
)

// BackgroundKey returns interning key of background style for raw color.
func BackgroundKey(color string) string {
	return "bg:" + strings.ToLower(strings.TrimSpace(color))
}

// Backgrounds applies solid fill styles to cells. Styles are shared between
// cells through interning cache, cache must belong to a single Book.
type Backgrounds struct {
	book  *Book
	cache *intern.Cache[int]
	log   *zap.Logger
}

// NewBackgrounds creates background applier for book.
func NewBackgrounds(book *Book, cache *intern.Cache[int], log *zap.Logger) *Backgrounds {
	if log == nil {
		log = zap.NewNop()
	}
	return &Backgrounds{book: book, cache: cache, log: log.Named("backgrounds")}
}

// Apply sets background of the cell unless cell already has fill, so the
// first color applied to a cell stays. Blank and unparseable colors are
// ignored.
func (b *Backgrounds) Apply(s *Sheet, cell, color string) error {
	if len(strings.TrimSpace(color)) == 0 {
		return nil
	}
	c, ok := css.ParseColor(color)
	if !ok {
		b.log.Debug("Ignoring unknown background color", zap.String("color", color))
		return nil
	}

	b.book.mu.Lock()
	defer b.book.mu.Unlock()

	filled, err := s.hasFill(cell)
	if err != nil {
		return err
	}
	if filled {
		return nil
	}

	var buildErr error
	id := b.cache.GetOrCreate(BackgroundKey(color), func() int {
		var id int
		id, buildErr = b.book.f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{c.Hex()}},
			Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		})
		return id
	})
	if buildErr != nil {
		return fmt.Errorf("unable to create background style for '%s': %w", color, buildErr)
	}
	if err := b.book.f.SetCellStyle(s.name, cell, cell, id); err != nil {
		return fmt.Errorf("unable to set background of %s!%s: %w", s.name, cell, err)
	}
	return nil
}
