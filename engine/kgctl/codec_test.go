package kgctl

import "testing"

func TestJSONCodecRoundTrip(t *testing.T) {
	var c jsonCodec
	in := Instance{Name: "W0301", HTTPURL: "http://x", BoltURL: "bolt://x", Running: true}

	data, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out Instance
	if err := c.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestJSONCodecName(t *testing.T) {
	var c jsonCodec
	if c.Name() != "json" {
		t.Fatalf("expected codec name 'json', got %q", c.Name())
	}
}
