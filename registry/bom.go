package registry

import "bytes"

// bomChar is the UTF-8 byte order mark.
var bomChar = []byte{0xef, 0xbb, 0xbf}

// StripBOM removes a leading byte order mark from module source if one
// is present. Source is handed to the engine and to the JSON parser
// without it.
func StripBOM(source []byte) []byte {
	if bytes.HasPrefix(source, bomChar) {
		return source[len(bomChar):]
	}
	return source
}
