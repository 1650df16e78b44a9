package main

import "encoding/json"

// decodeAny round-trips a parcel content value through JSON into a typed
// struct; parcel content arrives as map[string]any off the bus, with no
// stronger typing available at the handler boundary.
func decodeAny(in any, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// toMap is decodeAny's inverse: render a result struct as the map[string]any
// a Handler returns, so it round-trips through the bus as a text parcel.
func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
