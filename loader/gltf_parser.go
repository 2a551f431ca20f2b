package loader

import (
	"bytes"
	"strings"

	gltf "github.com/qmuntal/gltf"
)

// parseDocument decodes a pre-validated payload into a glTF document. The
// decoder handles both the JSON and the binary-chunked form; external
// buffers are left unresolved for the buffer store to fill.
func parseDocument(data []byte) (*gltf.Document, *Error) {
	doc := gltf.NewDocument()
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, wrapError(KindLibraryError, err, "decoding document")
	}
	if err := checkAssetVersion(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// checkAssetVersion enforces major version 2 on the decoded asset header.
func checkAssetVersion(doc *gltf.Document) *Error {
	v := strings.TrimSpace(doc.Asset.Version)
	if v == "" {
		return newError(KindMissingRequiredData, "asset declares no version")
	}
	if v != "2" && !strings.HasPrefix(v, "2.") {
		return newError(KindUnsupportedVersion, "asset version %q, want 2.x", v)
	}
	return nil
}
