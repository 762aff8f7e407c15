package stream

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// DefaultArrayKey is the top-level key hospitals publish their charge
// array under when the document root is not the array itself.
const DefaultArrayKey = "standard_charge_information"

// JSONItems streams elements of the target array one at a time using an
// incremental token decoder, so files far larger than memory stream with
// one element resident at a time.
type JSONItems struct {
	rc      io.ReadCloser
	dec     *json.Decoder
	itemNum int64
	done    bool
}

// OpenJSONArray positions a streaming decoder at the first element of the
// charge array. The array is found whether the document root is the array
// itself or the array lives under arrayKey ("" means DefaultArrayKey).
// A document with no such array yields zero items, not an error.
func OpenJSONArray(path, arrayKey string) (*JSONItems, error) {
	if arrayKey == "" {
		arrayKey = DefaultArrayKey
	}

	rc, err := Open(path)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(rc)
	r := &JSONItems{rc: rc, dec: dec}

	tok, err := dec.Token()
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("read opening token: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		rc.Close()
		return nil, fmt.Errorf("expected '{' or '[', got %v", tok)
	}

	switch delim {
	case '[':
		// Root is the array; decoder is already positioned at element 0.
		return r, nil
	case '{':
		if err := r.seekArray(arrayKey); err != nil {
			rc.Close()
			return nil, err
		}
		return r, nil
	default:
		rc.Close()
		return nil, fmt.Errorf("expected '{' or '[', got %v", delim)
	}
}

// seekArray walks top-level keys until it enters arrayKey's '['. All
// other values are skipped without materializing them as typed data.
func (r *JSONItems) seekArray(arrayKey string) error {
	for r.dec.More() {
		tok, err := r.dec.Token()
		if err != nil {
			return fmt.Errorf("read key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected string key, got %T", tok)
		}

		if key == arrayKey {
			tok, err := r.dec.Token()
			if err != nil {
				return fmt.Errorf("read %s '[': %w", arrayKey, err)
			}
			if d, ok := tok.(json.Delim); !ok || d != '[' {
				return fmt.Errorf("expected '[' for %s, got %v", arrayKey, tok)
			}
			return nil
		}

		var skip json.RawMessage
		if err := r.dec.Decode(&skip); err != nil {
			return fmt.Errorf("skip field %q: %w", key, err)
		}
	}

	// No charge array in this document.
	r.done = true
	return nil
}

// Next returns the next raw array element. Returns io.EOF when the array
// is exhausted.
func (r *JSONItems) Next() (json.RawMessage, error) {
	if r.done {
		return nil, io.EOF
	}
	if !r.dec.More() {
		r.done = true
		return nil, io.EOF
	}

	var item json.RawMessage
	if err := r.dec.Decode(&item); err != nil {
		return nil, fmt.Errorf("decode item %d: %w", r.itemNum+1, err)
	}
	r.itemNum++
	return item, nil
}

// ItemNum returns the number of items yielded so far.
func (r *JSONItems) ItemNum() int64 { return r.itemNum }

// Close releases the underlying file.
func (r *JSONItems) Close() error { return r.rc.Close() }

// NDJSONItems streams one JSON object per line.
type NDJSONItems struct {
	rc      io.ReadCloser
	scanner *bufio.Scanner
	itemNum int64
}

// OpenNDJSON opens a line-delimited JSON file for streaming.
func OpenNDJSON(path string) (*NDJSONItems, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	return &NDJSONItems{rc: rc, scanner: scanner}, nil
}

// Next returns the next non-blank line as a raw JSON value. Returns
// io.EOF when the file is exhausted.
func (r *NDJSONItems) Next() (json.RawMessage, error) {
	for r.scanner.Scan() {
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}
		r.itemNum++
		return json.RawMessage(line), nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan line %d: %w", r.itemNum+1, err)
	}
	return nil, io.EOF
}

// Close releases the underlying file.
func (r *NDJSONItems) Close() error { return r.rc.Close() }
