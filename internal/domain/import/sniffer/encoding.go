// Package sniffer turns uploaded statement bytes into text.
// Card issuers export either UTF-8 or Shift_JIS; the caller never says which.
package sniffer

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Encoding names the charset a document was decoded from.
type Encoding string

const (
	UTF8     Encoding = "utf-8"
	ShiftJIS Encoding = "shift_jis"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText decodes raw as UTF-8 and falls back to Shift_JIS when the
// bytes are not valid UTF-8. If Shift_JIS also yields replacement
// characters, the lossy UTF-8 reading is returned instead.
func DecodeText(raw []byte) (string, Encoding) {
	raw = stripUTF8BOM(raw)

	if utf8.Valid(raw) {
		return string(raw), UTF8
	}

	decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), raw)
	if err == nil && !bytes.ContainsRune(decoded, utf8.RuneError) {
		return string(decoded), ShiftJIS
	}

	return strings.ToValidUTF8(string(raw), string(utf8.RuneError)), UTF8
}

func stripUTF8BOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}
