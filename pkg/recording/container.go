package recording

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Container errors.
var (
	ErrMalformedContainer  = errors.New("malformed container")
	ErrUnsupportedEncoding = errors.New("unsupported payload encoding")
	ErrTruncatedPayload    = errors.New("truncated payload")
)

const (
	blobMagic   = "MCAT"
	blobVersion = 1

	// blob header: magic(4) + version(2) + flags(1) + length(4)
	blobHeaderSize = 11

	flagZlib = 0x01

	htmlMarker = `id="recording-payload"`
)

// ExtractPayload extracts the raw msgpack command stream from container
// bytes. Accepted containers: an HTML page with an embedded base64 blob,
// a bare payload blob, or a raw msgpack stream.
func ExtractPayload(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedContainer)
	}

	if bytes.HasPrefix(data, []byte(blobMagic)) {
		return parseBlob(data)
	}

	if looksLikeHTML(data) {
		blob, err := extractHTMLBlob(data)
		if err != nil {
			return nil, err
		}
		return parseBlob(blob)
	}

	// Raw msgpack stream: every command record is a map.
	if b := data[0]; b>>4 == 0x8 || b == 0xde || b == 0xdf {
		return data, nil
	}

	return nil, fmt.Errorf("%w: unrecognized wrapper structure", ErrMalformedContainer)
}

// looksLikeHTML reports whether data starts with an HTML tag, ignoring
// leading whitespace.
func looksLikeHTML(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '<'
}

// extractHTMLBlob locates the embedded recording script and decodes its
// base64 body.
func extractHTMLBlob(data []byte) ([]byte, error) {
	idx := bytes.Index(data, []byte(htmlMarker))
	if idx < 0 {
		return nil, fmt.Errorf("%w: no recording payload element", ErrMalformedContainer)
	}

	open := bytes.IndexByte(data[idx:], '>')
	if open < 0 {
		return nil, fmt.Errorf("%w: unterminated payload element at byte %d", ErrMalformedContainer, idx)
	}
	body := data[idx+open+1:]

	end := bytes.Index(body, []byte("</script>"))
	if end < 0 {
		return nil, fmt.Errorf("%w: unterminated payload script at byte %d", ErrMalformedContainer, idx)
	}

	encoded := bytes.Map(dropSpace, body[:end])
	blob := make([]byte, base64.StdEncoding.DecodedLen(len(encoded)))
	n, err := base64.StdEncoding.Decode(blob, encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 payload: %v", ErrMalformedContainer, err)
	}
	return blob[:n], nil
}

func dropSpace(r rune) rune {
	switch r {
	case ' ', '\t', '\r', '\n':
		return -1
	}
	return r
}

// parseBlob validates the blob header and returns the contained msgpack
// stream, inflating it if compressed.
func parseBlob(data []byte) ([]byte, error) {
	if len(data) < blobHeaderSize {
		return nil, fmt.Errorf("%w: blob header needs %d bytes, have %d", ErrTruncatedPayload, blobHeaderSize, len(data))
	}
	if string(data[:4]) != blobMagic {
		return nil, fmt.Errorf("%w: bad blob magic", ErrMalformedContainer)
	}

	version := binary.LittleEndian.Uint16(data[4:6])
	if version != blobVersion {
		return nil, fmt.Errorf("%w: blob version %d", ErrUnsupportedEncoding, version)
	}

	flags := data[6]
	if flags&^byte(flagZlib) != 0 {
		return nil, fmt.Errorf("%w: unknown blob flags 0x%02x", ErrUnsupportedEncoding, flags)
	}

	declared := binary.LittleEndian.Uint32(data[7:11])
	body := data[blobHeaderSize:]

	if flags&flagZlib == 0 {
		if uint32(len(body)) < declared {
			return nil, fmt.Errorf("%w: declared %d bytes, %d available at byte %d",
				ErrTruncatedPayload, declared, len(body), blobHeaderSize)
		}
		return body[:declared], nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: zlib: %v", ErrUnsupportedEncoding, err)
	}
	defer zr.Close()

	payload := make([]byte, declared)
	if _, err := io.ReadFull(zr, payload); err != nil {
		return nil, fmt.Errorf("%w: declared %d bytes, inflate stopped early: %v",
			ErrTruncatedPayload, declared, err)
	}
	return payload, nil
}

// EncodeBlob wraps a msgpack command stream in a payload blob.
func EncodeBlob(payload []byte, compress bool) []byte {
	header := make([]byte, blobHeaderSize)
	copy(header, blobMagic)
	binary.LittleEndian.PutUint16(header[4:6], blobVersion)
	binary.LittleEndian.PutUint32(header[7:11], uint32(len(payload)))

	if !compress {
		return append(header, payload...)
	}

	header[6] = flagZlib
	var buf bytes.Buffer
	buf.Write(header)
	zw := zlib.NewWriter(&buf)
	zw.Write(payload)
	zw.Close()
	return buf.Bytes()
}

// WrapHTML embeds a payload blob in a minimal standalone HTML page.
func WrapHTML(blob []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"></head>\n<body>\n")
	buf.WriteString(`<script type="application/octet-stream" ` + htmlMarker + ">\n")
	buf.WriteString(base64.StdEncoding.EncodeToString(blob))
	buf.WriteString("\n</script>\n</body>\n</html>\n")
	return buf.Bytes()
}
