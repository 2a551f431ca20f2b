package loader

import (
	"bytes"
	"encoding/binary"
)

// GLB container constants.
const (
	glbMagic         = 0x46546C67 // "glTF"
	glbVersion       = 2
	glbHeaderSize    = 12
	glbChunkHeader   = 8
	glbChunkCodeJSON = 0x4E4F534A // "JSON"
	glbChunkCodeBIN  = 0x004E4942 // "BIN\0"
)

// containerKind identifies the outer encoding of an asset payload.
type containerKind int

const (
	containerUnknown containerKind = iota
	containerJSON
	containerGLB
)

// detectContainer sniffs the payload. The JSON form must start with '{'
// (after optional whitespace and BOM) and contain both an "asset" and a
// "version" field; the binary form must start with the GLB magic.
func detectContainer(data []byte) containerKind {
	if len(data) >= glbHeaderSize && binary.LittleEndian.Uint32(data) == glbMagic {
		return containerGLB
	}

	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}), " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return containerUnknown
	}
	if !bytes.Contains(trimmed, []byte(`"asset"`)) || !bytes.Contains(trimmed, []byte(`"version"`)) {
		return containerUnknown
	}
	return containerJSON
}

// validateJSONDocument scans the payload for balanced braces, tracking
// string literals and escape sequences so braces inside strings are
// ignored. An unmatched closing brace reports its byte offset; a document
// that ends with open braces reports the payload length as the offset.
func validateJSONDocument(data []byte) *Error {
	depth := 0
	inString := false
	escaped := false

	for i, c := range data {
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth < 0 {
					return newErrorAt(KindInvalidFormat, int64(i), "unmatched closing brace")
				}
			}
		}
	}

	if inString {
		return newErrorAt(KindInvalidFormat, int64(len(data)), "unterminated string literal")
	}
	if depth != 0 {
		return newErrorAt(KindInvalidFormat, int64(len(data)), "unbalanced braces: %d unclosed", depth)
	}
	return nil
}

// validateGLBHeader checks the binary container's fixed header and the
// first chunk tag before any chunk content is parsed.
func validateGLBHeader(data []byte) *Error {
	if len(data) < glbHeaderSize {
		return newErrorAt(KindInvalidFormat, 0, "truncated binary header: %d bytes", len(data))
	}

	magic := binary.LittleEndian.Uint32(data)
	if magic != glbMagic {
		return newErrorAt(KindInvalidFormat, 0, "bad magic 0x%08X", magic)
	}

	version := binary.LittleEndian.Uint32(data[4:])
	if version != glbVersion {
		return newErrorAt(KindUnsupportedVersion, 4, "binary container version %d, want %d", version, glbVersion)
	}

	declared := binary.LittleEndian.Uint32(data[8:])
	if int(declared) > len(data) {
		return newErrorAt(KindInvalidFormat, 8, "declared length %d exceeds payload %d", declared, len(data))
	}

	if len(data) < glbHeaderSize+glbChunkHeader {
		return newErrorAt(KindInvalidFormat, glbHeaderSize, "missing first chunk header")
	}
	chunkType := binary.LittleEndian.Uint32(data[16:])
	if chunkType != glbChunkCodeJSON {
		return newErrorAt(KindInvalidFormat, 16, "first chunk tag 0x%08X, want JSON", chunkType)
	}
	return nil
}

// preValidate runs the cheap structural checkpoint on the raw payload and
// reports the detected container kind.
func preValidate(data []byte) (containerKind, *Error) {
	kind := detectContainer(data)
	switch kind {
	case containerJSON:
		if err := validateJSONDocument(data); err != nil {
			return kind, err
		}
	case containerGLB:
		if err := validateGLBHeader(data); err != nil {
			return kind, err
		}
	default:
		if len(data) >= 4 {
			return kind, newErrorAt(KindInvalidFormat, 0, "unrecognized container (first bytes % X)", data[:4])
		}
		return kind, newErrorAt(KindInvalidFormat, 0, "payload too short: %d bytes", len(data))
	}
	return kind, nil
}
