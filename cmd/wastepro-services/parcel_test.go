package main

import "testing"

type parcelSample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestDecodeAnyRoundTrips(t *testing.T) {
	in := map[string]any{"name": "leachate", "count": float64(3)}

	var out parcelSample
	if err := decodeAny(in, &out); err != nil {
		t.Fatalf("decodeAny: %v", err)
	}
	if out.Name != "leachate" || out.Count != 3 {
		t.Fatalf("unexpected decode: %+v", out)
	}
}

func TestDecodeAnyRejectsUnmarshalable(t *testing.T) {
	if err := decodeAny(make(chan int), &parcelSample{}); err == nil {
		t.Fatal("expected error marshaling a channel")
	}
}

func TestToMapRoundTrips(t *testing.T) {
	in := parcelSample{Name: "landfill liner", Count: 2}

	m, err := toMap(in)
	if err != nil {
		t.Fatalf("toMap: %v", err)
	}
	if m["name"] != "landfill liner" {
		t.Fatalf("unexpected name: %v", m["name"])
	}
	if m["count"] != float64(2) {
		t.Fatalf("unexpected count: %v", m["count"])
	}
}

func TestToMapThenDecodeAnyIsIdentity(t *testing.T) {
	in := parcelSample{Name: "concept", Count: 7}

	m, err := toMap(in)
	if err != nil {
		t.Fatalf("toMap: %v", err)
	}

	var out parcelSample
	if err := decodeAny(m, &out); err != nil {
		t.Fatalf("decodeAny: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}
