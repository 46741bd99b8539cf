// Package css understands the small subset of CSS which can be found in
// inline style attributes of HTML fragments: declaration lists and the values
// of font and color properties.
package css

import (
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Declarations maps lower-cased property names to their values as found in
// declaration list. Unknown properties are kept, consumers ignore what they
// do not understand.
type Declarations map[string]string

// ParseDeclaration parses inline style declaration list like
// "color: red; font-size:14px". It never fails: segments without colon, with
// empty property name or with empty value are silently dropped and whatever
// could be understood is returned.
func ParseDeclaration(text string) Declarations {
	decls := make(Declarations)
	if strings.TrimSpace(text) == "" {
		return decls
	}

	for _, segment := range splitDeclarations(text) {
		name, value, found := strings.Cut(segment, ":")
		if !found {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = stripQuotes(strings.TrimSpace(value))
		if len(name) == 0 || len(value) == 0 {
			continue
		}
		decls[name] = value
	}
	return decls
}

// splitDeclarations cuts declaration list into segments on semicolons which
// are not part of strings, functions or blocks. Comments are dropped.
func splitDeclarations(text string) []string {
	var (
		segments []string
		sb       strings.Builder
		depth    int
	)

	lexer := css.NewLexer(parse.NewInputString(text))
	for {
		tt, data := lexer.Next()
		switch tt {
		case css.ErrorToken:
			if err := lexer.Err(); err != nil && err != io.EOF {
				// lexer gave up somewhere in the middle, plain split loses
				// less than we would
				return strings.Split(text, ";")
			}
			if sb.Len() > 0 {
				segments = append(segments, sb.String())
			}
			return segments
		case css.BadStringToken, css.BadURLToken:
			// unbalanced quote would swallow the rest of the list
			return strings.Split(text, ";")
		case css.StringToken:
			if !closed(data) {
				// lexer runs string to the end of input
				return strings.Split(text, ";")
			}
		case css.CommentToken:
			continue
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken, css.LeftBraceToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken, css.RightBraceToken:
			if depth > 0 {
				depth--
			}
		case css.SemicolonToken:
			if depth == 0 {
				segments = append(segments, sb.String())
				sb.Reset()
				continue
			}
		}
		sb.Write(data)
	}
}

// closed reports whether string token ends with its opening quote which is
// not escaped.
func closed(data []byte) bool {
	if len(data) < 2 || data[len(data)-1] != data[0] {
		return false
	}
	slashes := 0
	for i := len(data) - 2; i > 0 && data[i] == '\\'; i-- {
		slashes++
	}
	return slashes%2 == 0
}

// stripQuotes removes one leading and one trailing quote character.
func stripQuotes(s string) string {
	if len(s) > 0 && (s[0] == '"' || s[0] == '\'') {
		s = s[1:]
	}
	if len(s) > 0 && (s[len(s)-1] == '"' || s[len(s)-1] == '\'') {
		s = s[:len(s)-1]
	}
	return s
}
