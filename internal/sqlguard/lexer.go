package sqlguard

import "strings"

// scanned is the query with comments blanked out, plus the number of
// non-empty statements separated by semicolons outside literals.
type scanned struct {
	text       string
	statements int
}

// scan walks a PostgreSQL query, replacing line and (nested) block comments
// with a single space and counting top-level statements. String constants,
// escape strings, quoted identifiers and dollar-quoted bodies are copied
// through untouched.
func scan(q string) scanned {
	var (
		out      strings.Builder
		segStart int
		stmts    int
	)
	out.Grow(len(q))

	endStatement := func() {
		if strings.TrimSpace(out.String()[segStart:]) != "" {
			stmts++
		}
	}

	for i := 0; i < len(q); {
		c := q[i]
		switch {
		case c == '-' && i+1 < len(q) && q[i+1] == '-':
			i = skipLineComment(q, i)
			out.WriteByte(' ')

		case c == '/' && i+1 < len(q) && q[i+1] == '*':
			i = skipBlockComment(q, i)
			out.WriteByte(' ')

		case c == '\'':
			end := skipQuoted(q, i, '\'', isEscapeString(q, i))
			out.WriteString(q[i:end])
			i = end

		case c == '"':
			end := skipQuoted(q, i, '"', false)
			out.WriteString(q[i:end])
			i = end

		case c == '$':
			if tag, ok := dollarTag(q, i); ok {
				end := strings.Index(q[i+len(tag):], tag)
				if end < 0 {
					end = len(q)
				} else {
					end = i + len(tag) + end + len(tag)
				}
				out.WriteString(q[i:end])
				i = end
				continue
			}
			out.WriteByte(c)
			i++

		case c == ';':
			endStatement()
			out.WriteByte(c)
			segStart = out.Len()
			i++

		default:
			out.WriteByte(c)
			i++
		}
	}
	endStatement()

	return scanned{text: out.String(), statements: stmts}
}

func skipLineComment(q string, i int) int {
	if nl := strings.IndexByte(q[i:], '\n'); nl >= 0 {
		return i + nl + 1
	}
	return len(q)
}

func skipBlockComment(q string, i int) int {
	depth := 0
	for i < len(q) {
		switch {
		case strings.HasPrefix(q[i:], "/*"):
			depth++
			i += 2
		case strings.HasPrefix(q[i:], "*/"):
			depth--
			i += 2
			if depth == 0 {
				return i
			}
		default:
			i++
		}
	}
	return len(q)
}

// skipQuoted returns the index just past the literal opened at q[i]. A
// doubled quote is an escaped quote; in escape strings a backslash escapes
// the next byte.
func skipQuoted(q string, i int, quote byte, backslash bool) int {
	i++
	for i < len(q) {
		switch {
		case backslash && q[i] == '\\':
			i += 2
		case q[i] == quote:
			if i+1 < len(q) && q[i+1] == quote {
				i += 2
				continue
			}
			return i + 1
		default:
			i++
		}
	}
	return len(q)
}

// isEscapeString reports whether the quote at q[i] opens an E'...' constant.
func isEscapeString(q string, i int) bool {
	if i == 0 || (q[i-1] != 'E' && q[i-1] != 'e') {
		return false
	}
	return i == 1 || !isIdentByte(q[i-2])
}

// dollarTag returns the $tag$ delimiter starting at q[i], if any. Positional
// parameters such as $1 and a "$" inside an identifier (a$b, a$$) are not
// delimiters.
func dollarTag(q string, i int) (string, bool) {
	if continuesIdentifier(q, i) {
		return "", false
	}
	j := i + 1
	if j < len(q) && q[j] >= '0' && q[j] <= '9' {
		return "", false
	}
	for j < len(q) && isIdentByte(q[j]) {
		j++
	}
	if j < len(q) && q[j] == '$' {
		return q[i : j+1], true
	}
	return "", false
}

// continuesIdentifier reports whether the "$" at q[i] is part of an
// identifier, which may contain "$" after its first character.
func continuesIdentifier(q string, i int) bool {
	k := i
	for k > 0 && (isIdentByte(q[k-1]) || q[k-1] == '$') {
		k--
	}
	if k == i {
		return false
	}
	first := q[k]
	return first == '_' || (first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z')
}

func isIdentByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
