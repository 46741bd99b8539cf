package convert

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gosimple/slug"

	"hxc/config"
)

// excel limit on sheet name length
const maxSheetName = 31

// characters excel does not allow in sheet names
var sheetNameReplacer = strings.NewReplacer(
	":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "(", "]", ")",
)

// baseName returns source name without extension suitable for file names.
func baseName(src string) string {
	base := filepath.Base(strings.TrimSuffix(src, string(filepath.Separator)))
	if ext := filepath.Ext(base); ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return config.CleanFileName(base)
}

// buildOutputPath returns workbook file name. Destination ending with ".xlsx"
// is used as is, anything else is directory workbook is placed in (current
// working directory when destination is empty). Workbook is named by
// expanding tmpl or after the source when template is empty or expands to
// nothing.
func buildOutputPath(src, dst, tmpl string, documents int) (string, error) {
	if len(dst) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dst = wd
	}
	if strings.EqualFold(filepath.Ext(dst), ".xlsx") {
		return dst, nil
	}

	name := baseName(src)
	if len(tmpl) > 0 {
		expanded, err := expandTemplate(config.OutputNameTemplateFieldName, tmpl, newValues(src, documents))
		if err != nil {
			return "", err
		}
		if len(expanded) > 0 {
			name = config.CleanFileName(expanded)
		}
	}
	if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
		name += ".xlsx"
	}
	return filepath.Join(dst, name), nil
}

// buildSheetName returns requested sheet name or one produced by tmpl or
// derived from source name, cut to what spreadsheet allows.
func buildSheetName(src, requested, tmpl string, documents int) (string, error) {
	name := strings.TrimSpace(requested)
	if len(name) == 0 && len(tmpl) > 0 {
		expanded, err := expandTemplate(config.SheetNameTemplateFieldName, tmpl, newValues(src, documents))
		if err != nil {
			return "", err
		}
		name = sheetNameReplacer.Replace(expanded)
	}
	if len(name) == 0 {
		name = slug.Make(baseName(src))
	}
	if len(name) == 0 {
		return "Sheet1", nil
	}
	if utf8.RuneCountInString(name) > maxSheetName {
		name = string([]rune(name)[:maxSheetName])
	}
	return name, nil
}
