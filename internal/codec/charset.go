package codec

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// DefaultCharset is the code page the engine reads and writes.
const DefaultCharset = "windows-1252"

// Charset resolves a charset name to its encoding.
func Charset(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1, nil
	case "utf-8", "utf8":
		return unicode.UTF8, nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", name)
	}
}

// EncodeText converts UTF-8 text to the named charset.
func EncodeText(charset, s string) ([]byte, error) {
	enc, err := Charset(charset)
	if err != nil {
		return nil, err
	}
	b, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encoding text as %s: %w", charset, err)
	}
	return b, nil
}

// DecodeText converts bytes in the named charset to UTF-8.
func DecodeText(charset string, b []byte) (string, error) {
	enc, err := Charset(charset)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decoding %s text: %w", charset, err)
	}
	return string(out), nil
}
