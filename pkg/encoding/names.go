// Package encoding decodes object names found in model files. Files saved
// by tools running under a Chinese locale often store names as GB18030
// instead of UTF-8.
package encoding

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// ToUTF8 returns data as a UTF-8 string. Valid UTF-8 is returned as is;
// anything else is decoded as GB18030.
func ToUTF8(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	result, _, err := transform.Bytes(simplifiedchinese.GB18030.NewDecoder(), data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "�")
	}
	return string(result)
}

// FromUTF8 encodes s as GB18030.
// Returns the original bytes if conversion fails.
func FromUTF8(s string) []byte {
	result, _, err := transform.Bytes(simplifiedchinese.GB18030.NewEncoder(), []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// FixedString cuts data at the first null byte and converts it to UTF-8.
func FixedString(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return ToUTF8(data)
}
