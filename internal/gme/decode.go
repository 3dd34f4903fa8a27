package gme

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"sort"
	"strings"

	"github.com/kkaya/gmedash/internal/normalize"
)

// The upstream content arrives in up to three layers: base64 over a
// zip archive over JSON. Some data-sets skip the archive, a few return
// plain JSON. Decode runs the transforms as an ordered list and passes
// the input through whenever a layer is recognizably absent; only a
// final unparseable JSON is an error.

// Decode turns a raw content payload into the upstream's record list.
// A payload that upstream reports as zero rows decodes to an empty
// slice with no error.
func Decode(payload []byte) ([]normalize.RawRecord, error) {
	if len(payload) == 0 {
		return nil, nil
	}

	data := tryBase64(payload)
	data, err := tryUnzip(data)
	if err != nil {
		return nil, err
	}

	return parseRecords(data)
}

// tryBase64 decodes base64 input, passing non-base64 input through.
func tryBase64(payload []byte) []byte {
	trimmed := bytes.TrimSpace(payload)

	// JSON payloads start with a structural character that is never
	// valid base64, so this cheap check avoids a decode attempt.
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return trimmed
	}

	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding} {
		if decoded, err := enc.DecodeString(string(trimmed)); err == nil {
			return decoded
		}
	}

	return trimmed
}

// tryUnzip extracts the first .json member of a zip archive, passing
// non-archive input through.
func tryUnzip(data []byte) ([]byte, error) {
	// Zip archives start with the PK signature.
	if len(data) < 4 || data[0] != 'P' || data[1] != 'K' {
		return data, nil
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		// Signature matched but the archive is broken: do not fall
		// through to JSON parsing of binary data.
		return nil, &DecodeError{Stage: "zip", Err: err}
	}

	var member *zip.File
	for _, f := range reader.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".json") {
			member = f
			break
		}
	}
	if member == nil && len(reader.File) > 0 {
		member = reader.File[0]
	}
	if member == nil {
		return nil, &DecodeError{Stage: "zip", Err: errEmptyArchive}
	}

	rc, err := member.Open()
	if err != nil {
		return nil, &DecodeError{Stage: "zip", Err: err}
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, &DecodeError{Stage: "zip", Err: err}
	}

	return content, nil
}

var errEmptyArchive = errString("archive has no members")

type errString string

func (e errString) Error() string { return string(e) }

// listWrapperKeys are probed in order when the payload is an object
// wrapping the record list.
var listWrapperKeys = []string{"Prices", "Results", "Data"}

// parseRecords parses the structured text into a flat record list.
// Accepted shapes: a top-level array, an object wrapping an array
// under a known (or any) key, or a single object as a one-record list.
func parseRecords(data []byte) ([]normalize.RawRecord, error) {
	var top interface{}
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, &DecodeError{Stage: "json", Err: err}
	}

	switch val := top.(type) {
	case []interface{}:
		return recordList(val), nil
	case map[string]interface{}:
		for _, key := range listWrapperKeys {
			if inner, ok := val[key].([]interface{}); ok {
				return recordList(inner), nil
			}
		}
		// Any array-valued key, in deterministic order.
		for _, key := range sortedMapKeys(val) {
			if inner, ok := val[key].([]interface{}); ok && len(inner) > 0 {
				return recordList(inner), nil
			}
		}
		return recordList([]interface{}{top}), nil
	case nil:
		return nil, nil
	default:
		return nil, &DecodeError{Stage: "json", Err: errNotRecords}
	}
}

var errNotRecords = errString("payload is not a record list")

func recordList(items []interface{}) []normalize.RawRecord {
	records := make([]normalize.RawRecord, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			records = append(records, normalize.RawRecord(m))
		}
	}
	return records
}

func sortedMapKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
