package localstore

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Payload encodings stored alongside each encoded record.
const (
	EncodingPlain = "plain"
	EncodingGzip  = "gzip-base64"
)

// encodePayload serializes v, gzip-compressing when allowed. Any
// compression failure degrades to a plain JSON payload rather than erroring.
func (s *Store) encodePayload(v any) (payload, encoding string, err error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", "", err
	}
	if s.plainPayloads {
		return string(raw), EncodingPlain, nil
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return string(raw), EncodingPlain, nil
	}
	if err := zw.Close(); err != nil {
		return string(raw), EncodingPlain, nil
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), EncodingGzip, nil
}

// decodePayload decodes a stored payload into out. Compressed payloads that
// fail to decompress fall back to a plain parse before giving up; a returned
// error means the record is corrupt and should be self-healed by deletion.
func decodePayload(payload, encoding string, out any) error {
	if encoding != EncodingGzip {
		return json.Unmarshal([]byte(payload), out)
	}

	raw, err := decompressPayload(payload)
	if err != nil {
		return json.Unmarshal([]byte(payload), out)
	}
	return json.Unmarshal(raw, out)
}

func decompressPayload(payload string) ([]byte, error) {
	compressed, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, err
	}
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
