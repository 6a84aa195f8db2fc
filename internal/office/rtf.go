package office

import (
	"fmt"
	"strconv"
	"strings"
)

// Destinations whose contents are never body text.
var rtfSkipDestinations = map[string]bool{
	"fonttbl": true, "colortbl": true, "stylesheet": true, "info": true,
	"pict": true, "object": true, "header": true, "footer": true,
	"headerl": true, "headerr": true, "footerl": true, "footerr": true,
	"listtable": true, "listoverridetable": true, "themedata": true,
	"colorschememapping": true, "datastore": true, "latentstyles": true,
	"rsidtbl": true, "generator": true, "xmlnstbl": true, "fldinst": true,
}

type rtfGroup struct {
	skip     bool
	ucSkip   int
	newGroup bool
}

// readRTF strips control words and groups from an RTF stream and keeps the
// visible text. \'hh escapes are decoded as Windows-1252 bytes in the ASCII
// and Latin-1 ranges; \uN escapes are decoded as Unicode.
func readRTF(data []byte) (string, error) {
	s := string(data)
	if !strings.HasPrefix(strings.TrimSpace(s), `{\rtf`) {
		return "", fmt.Errorf("%w: missing rtf header", ErrUnsupported)
	}
	var (
		b       strings.Builder
		stack   []rtfGroup
		cur     = rtfGroup{ucSkip: 1}
		pending int // characters to drop after a \u escape
	)
	emit := func(r rune) {
		if pending > 0 {
			pending--
			return
		}
		if !cur.skip {
			b.WriteRune(r)
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '{':
			stack = append(stack, cur)
			cur.newGroup = true
			continue
		case '}':
			if len(stack) == 0 {
				return "", fmt.Errorf("%w: unbalanced braces", ErrUnsupported)
			}
			cur = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			continue
		case '\r', '\n':
			continue
		case '\\':
		default:
			cur.newGroup = false
			emit(rune(c))
			continue
		}

		// Control sequence.
		if i+1 >= len(s) {
			break
		}
		next := s[i+1]
		switch {
		case next == '\\' || next == '{' || next == '}':
			cur.newGroup = false
			emit(rune(next))
			i++
		case next == '*':
			cur.skip = true
			i++
		case next == '\'':
			if i+3 < len(s) {
				if v, err := strconv.ParseUint(s[i+2:i+4], 16, 8); err == nil {
					emit(rune(v))
				}
			}
			i += 3
		case next == '~':
			emit(' ')
			i++
		case next == '-' || next == '_':
			i++
		case isLetter(next):
			j := i + 1
			for j < len(s) && isLetter(s[j]) {
				j++
			}
			word := s[i+1 : j]
			k := j
			if k < len(s) && (s[k] == '-' || isDigit(s[k])) {
				k++
				for k < len(s) && isDigit(s[k]) {
					k++
				}
			}
			param, hasParam := 0, k > j
			if hasParam {
				param, _ = strconv.Atoi(s[j:k])
			}
			if k < len(s) && s[k] == ' ' {
				k++
			}
			i = k - 1

			if cur.newGroup && rtfSkipDestinations[word] {
				cur.skip = true
			}
			cur.newGroup = false
			switch word {
			case "par", "line", "sect", "page":
				emit('\n')
			case "tab":
				emit('\t')
			case "emdash":
				emit('—')
			case "endash":
				emit('–')
			case "bullet":
				emit('•')
			case "lquote", "rquote":
				emit('\'')
			case "ldblquote", "rdblquote":
				emit('"')
			case "uc":
				if hasParam {
					cur.ucSkip = param
				}
			case "u":
				if hasParam {
					if param < 0 {
						param += 65536
					}
					emit(rune(param))
					pending = cur.ucSkip
				}
			}
		default:
			i++
		}
	}
	return b.String(), nil
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
