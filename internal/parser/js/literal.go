package js

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

// Unit is one source-level piece of a string literal body: a single
// character or one complete escape sequence, paired with the text it
// denotes. Cutting a literal body only between units keeps every escape
// intact, so any run of units is itself a valid literal body.
type Unit struct {
	Raw   string
	Value string
}

// SplitUnits decodes a string literal body (the text between the quotes).
// Lone UTF-16 surrogates decode to their WTF-8 byte form, which never
// matches valid UTF-8 text.
func SplitUnits(body string) ([]Unit, error) {
	units := make([]Unit, 0, len(body))
	for i := 0; i < len(body); {
		if body[i] != '\\' {
			_, size := utf8.DecodeRuneInString(body[i:])
			units = append(units, Unit{Raw: body[i : i+size], Value: body[i : i+size]})
			i += size
			continue
		}

		n, value, cu, err := decodeEscape(body[i:])
		if err != nil {
			return nil, err
		}

		// \uD83D\uDE00 style escape pairs are a single code point
		if utf16.IsSurrogate(cu) && cu < 0xDC00 && i+n < len(body) && body[i+n] == '\\' {
			if m, _, lo, lerr := decodeEscape(body[i+n:]); lerr == nil && lo >= 0xDC00 && lo <= 0xDFFF {
				units = append(units, Unit{
					Raw:   body[i : i+n+m],
					Value: string(utf16.DecodeRune(cu, lo)),
				})
				i += n + m
				continue
			}
		}

		units = append(units, Unit{Raw: body[i : i+n], Value: value})
		i += n
	}
	return units, nil
}

// decodeEscape decodes the escape sequence at the start of s. It returns the
// consumed length, the decoded text and, for \u escapes, the code point
// (-1 otherwise).
func decodeEscape(s string) (int, string, rune, error) {
	if len(s) < 2 {
		return 0, "", -1, &SyntaxError{Reason: "dangling backslash in string literal"}
	}

	switch c := s[1]; {
	case c == 'n':
		return 2, "\n", -1, nil
	case c == 't':
		return 2, "\t", -1, nil
	case c == 'r':
		return 2, "\r", -1, nil
	case c == 'b':
		return 2, "\b", -1, nil
	case c == 'f':
		return 2, "\f", -1, nil
	case c == 'v':
		return 2, "\v", -1, nil
	case c == '\n':
		return 2, "", -1, nil
	case c == '\r':
		if len(s) > 2 && s[2] == '\n' {
			return 3, "", -1, nil
		}
		return 2, "", -1, nil
	case c == 'x':
		if len(s) < 4 {
			return 0, "", -1, badEscape(s)
		}
		v, err := strconv.ParseUint(s[2:4], 16, 8)
		if err != nil {
			return 0, "", -1, badEscape(s)
		}
		return 4, string(rune(v)), -1, nil
	case c == 'u':
		return decodeUnicodeEscape(s)
	case c >= '0' && c <= '7':
		// Legacy octal: up to three digits, at most \377
		limit := 2
		if c <= '3' {
			limit = 3
		}
		j := 2
		for j < len(s) && j-1 < limit && s[j] >= '0' && s[j] <= '7' {
			j++
		}
		v, _ := strconv.ParseUint(s[1:j], 8, 16)
		return j, string(rune(v)), -1, nil
	default:
		r, size := utf8.DecodeRuneInString(s[1:])
		if r == '\u2028' || r == '\u2029' {
			return 1 + size, "", -1, nil
		}
		return 1 + size, s[1 : 1+size], -1, nil
	}
}

func decodeUnicodeEscape(s string) (int, string, rune, error) {
	if strings.HasPrefix(s[2:], "{") {
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return 0, "", -1, badEscape(s)
		}
		v, err := strconv.ParseUint(s[3:end], 16, 32)
		if err != nil || v > unicode.MaxRune {
			return 0, "", -1, badEscape(s)
		}
		return end + 1, encodeCodePoint(rune(v)), rune(v), nil
	}

	if len(s) < 6 {
		return 0, "", -1, badEscape(s)
	}
	v, err := strconv.ParseUint(s[2:6], 16, 16)
	if err != nil {
		return 0, "", -1, badEscape(s)
	}
	return 6, encodeCodePoint(rune(v)), rune(v), nil
}

// encodeCodePoint is utf8 encoding that keeps surrogates instead of
// replacing them with U+FFFD
func encodeCodePoint(r rune) string {
	if !utf16.IsSurrogate(r) {
		return string(r)
	}
	return string([]byte{
		0xE0 | byte(r>>12),
		0x80 | byte(r>>6)&0x3F,
		0x80 | byte(r)&0x3F,
	})
}

func badEscape(s string) error {
	end := min(len(s), 8)
	return &SyntaxError{Reason: fmt.Sprintf("malformed escape sequence %q", s[:end])}
}
