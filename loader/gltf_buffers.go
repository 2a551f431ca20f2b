package loader

import (
	"encoding/base64"
	"strings"

	gltf "github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-assets/diag"
)

// bufferSource is a closed tagged union describing where a buffer's bytes
// come from. Exactly one concrete case applies per buffer; dispatch is by
// type switch, never by reflection.
type bufferSource interface {
	isBufferSource()
}

// chunkSource is a buffer whose bytes arrived inside the binary container
// and were already attached by the decoder.
type chunkSource struct {
	data []byte
}

// dataURISource is a buffer embedded as a base64 data URI.
type dataURISource struct {
	uri string
}

// externalSource is a buffer referenced by a relative URI next to the
// asset.
type externalSource struct {
	uri string
}

// unsupportedSource is anything else (absolute URLs, unknown schemes).
type unsupportedSource struct {
	uri string
}

func (chunkSource) isBufferSource()       {}
func (dataURISource) isBufferSource()     {}
func (externalSource) isBufferSource()    {}
func (unsupportedSource) isBufferSource() {}

// classifyBufferSource inspects one declared buffer and picks its source
// case.
func classifyBufferSource(buf *gltf.Buffer) bufferSource {
	if len(buf.Data) > 0 {
		return chunkSource{data: buf.Data}
	}
	uri := buf.URI
	switch {
	case uri == "":
		return chunkSource{data: nil}
	case strings.HasPrefix(uri, "data:"):
		return dataURISource{uri: uri}
	case strings.Contains(uri, "://"):
		return unsupportedSource{uri: uri}
	default:
		return externalSource{uri: uri}
	}
}

// decodeDataURI extracts and base64-decodes the payload of a data URI.
func decodeDataURI(uri string) ([]byte, error) {
	marker := "base64,"
	idx := strings.Index(uri, marker)
	if idx < 0 {
		return nil, newError(KindCorruptedBuffer, "data URI is not base64 encoded")
	}
	payload := uri[idx+len(marker):]
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, wrapError(KindCorruptedBuffer, err, "decoding base64 buffer")
	}
	return decoded, nil
}

// loadBuffers populates the scene's buffer table, one slot per declared
// buffer. A buffer that fails to load stays empty and is reported as a
// local error; the remaining buffers still load, and accessors backed by
// the empty slot fail validation later.
func loadBuffers(doc *gltf.Document, baseDir string, resolver FileResolver, dc *diag.Context) [][]byte {
	buffers := make([][]byte, len(doc.Buffers))

	for i, buf := range doc.Buffers {
		switch src := classifyBufferSource(buf).(type) {
		case chunkSource:
			buffers[i] = src.data

		case dataURISource:
			data, err := decodeDataURI(src.uri)
			if err != nil {
				dc.CountLocalError("embedded buffer decode failed",
					zap.Int("buffer", i), zap.Error(err))
				continue
			}
			buffers[i] = data

		case externalSource:
			if resolver == nil {
				dc.CountLocalError("external buffer with no file resolver",
					zap.Int("buffer", i), zap.String("uri", src.uri))
				continue
			}
			data, err := resolver.Resolve(baseDir, src.uri)
			if err != nil {
				dc.CountLocalError("external buffer load failed",
					zap.Int("buffer", i), zap.String("uri", src.uri), zap.Error(err))
				continue
			}
			buffers[i] = data

		case unsupportedSource:
			dc.CountLocalError("unsupported buffer source",
				zap.Int("buffer", i), zap.String("uri", src.uri))
		}
	}
	return buffers
}
