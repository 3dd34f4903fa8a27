package gme

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"errors"
	"testing"
)

// zipJSON wraps content into a single-member zip archive.
func zipJSON(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create(name)
	if err != nil {
		t.Fatalf("create zip member: %v", err)
	}
	if _, err := f.Write(content); err != nil {
		t.Fatalf("write zip member: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

const sampleJSON = `[
	{"FlowDate": 20241115, "Hour": 1, "Zone": "NORD", "Price": 130.25},
	{"FlowDate": 20241115, "Hour": 2, "Zone": "NORD", "Price": 125.10}
]`

func TestDecodeFullPipeline(t *testing.T) {
	// base64(zip(json)) - the standard upstream layering
	archived := zipJSON(t, "results.json", []byte(sampleJSON))
	payload := []byte(base64.StdEncoding.EncodeToString(archived))

	records, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0]["Zone"] != "NORD" {
		t.Errorf("Zone = %v, want NORD", records[0]["Zone"])
	}
}

func TestDecodeBase64JSON(t *testing.T) {
	// base64(json) without the archive layer
	payload := []byte(base64.StdEncoding.EncodeToString([]byte(sampleJSON)))

	records, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
}

func TestDecodePlainJSON(t *testing.T) {
	records, err := Decode([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
}

func TestDecodeWrappedObject(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int
	}{
		{
			name:    "Prices wrapper",
			payload: `{"Prices": [{"FlowDate": 20241115, "Price": 1}]}`,
			want:    1,
		},
		{
			name:    "Results wrapper",
			payload: `{"Results": [{"FlowDate": 20241115}, {"FlowDate": 20241116}]}`,
			want:    2,
		},
		{
			name:    "Data wrapper",
			payload: `{"Data": [{"FlowDate": 20241115}]}`,
			want:    1,
		},
		{
			name:    "unknown wrapper key with list value",
			payload: `{"ZonalPrices": [{"FlowDate": 20241115}]}`,
			want:    1,
		},
		{
			name:    "single object becomes one record",
			payload: `{"FlowDate": 20241115, "Price": 10}`,
			want:    1,
		},
		{
			name:    "empty list",
			payload: `[]`,
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := Decode([]byte(tt.payload))
			if err != nil {
				t.Fatalf("Decode() failed: %v", err)
			}
			if len(records) != tt.want {
				t.Errorf("got %d records, want %d", len(records), tt.want)
			}
		})
	}
}

func TestDecodeEmptyPayload(t *testing.T) {
	records, err := Decode(nil)
	if err != nil {
		t.Fatalf("Decode(nil) failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode([]byte(`{"broken": `))
	if err == nil {
		t.Fatal("expected DecodeError for malformed JSON")
	}

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %T", err)
	}
	if decodeErr.Stage != "json" {
		t.Errorf("Stage = %s, want json", decodeErr.Stage)
	}
}

func TestDecodeCorruptArchive(t *testing.T) {
	// PK signature with garbage body must fail at the zip stage, not
	// fall through to JSON parsing of binary data.
	payload := append([]byte("PK\x03\x04"), []byte("garbage")...)

	_, err := Decode(payload)
	if err == nil {
		t.Fatal("expected DecodeError for corrupt archive")
	}

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %T", err)
	}
	if decodeErr.Stage != "zip" {
		t.Errorf("Stage = %s, want zip", decodeErr.Stage)
	}
}

func TestDecodeArchivePrefersJSONMember(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	readme, _ := w.Create("README.txt")
	readme.Write([]byte("not data"))

	data, _ := w.Create("prices.json")
	data.Write([]byte(`[{"FlowDate": 20241115}]`))

	w.Close()

	records, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record from the .json member, got %d", len(records))
	}
}
