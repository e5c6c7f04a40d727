package extract

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// Byte order marks checked before any statistical detection.
var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// charsetDecoders maps detector charset names to decoders.
var charsetDecoders = map[string]encoding.Encoding{
	"ISO-8859-1":   charmap.ISO8859_1,
	"ISO-8859-2":   charmap.ISO8859_2,
	"ISO-8859-5":   charmap.ISO8859_5,
	"ISO-8859-6":   charmap.ISO8859_6,
	"ISO-8859-7":   charmap.ISO8859_7,
	"ISO-8859-8":   charmap.ISO8859_8,
	"ISO-8859-9":   charmap.ISO8859_9,
	"windows-1251": charmap.Windows1251,
	"windows-1252": charmap.Windows1252,
	"windows-1256": charmap.Windows1256,
	"KOI8-R":       charmap.KOI8R,
	"Shift_JIS":    japanese.ShiftJIS,
	"EUC-JP":       japanese.EUCJP,
	"EUC-KR":       korean.EUCKR,
	"GB-18030":     simplifiedchinese.GB18030,
	"Big5":         traditionalchinese.Big5,
	"UTF-16LE":     unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	"UTF-16BE":     unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
}

// decodePlaintext turns raw text-file bytes into a string. The fallback
// chain is: byte order mark, valid UTF-8, detected charset, Windows-1252
// as the last resort. Any non-UTF-8 path is reported as a warning.
func decodePlaintext(data []byte) (string, []string, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return string(bytes.TrimPrefix(data, bomUTF8)), nil, nil
	case bytes.HasPrefix(data, bomUTF16LE), bytes.HasPrefix(data, bomUTF16BE):
		decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(data)
		if err != nil {
			return "", nil, fmt.Errorf("cannot decode UTF-16 text: %w", err)
		}
		return string(decoded), nil, nil
	}

	if utf8.Valid(data) {
		return string(data), nil, nil
	}

	var warnings []string
	if det, err := chardet.NewTextDetector().DetectBest(data); err == nil {
		if enc, ok := charsetDecoders[det.Charset]; ok {
			if decoded, decErr := enc.NewDecoder().Bytes(data); decErr == nil {
				warnings = append(warnings,
					fmt.Sprintf("decoded as %s (confidence %d%%)", det.Charset, det.Confidence))
				return string(decoded), warnings, nil
			}
		}
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", warnings, fmt.Errorf("cannot decode text: %w", err)
	}
	warnings = append(warnings, "encoding detection failed, decoded as Windows-1252")
	return string(decoded), warnings, nil
}
