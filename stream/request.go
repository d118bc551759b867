package stream

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/buger/jsonparser"
	gojson "github.com/goccy/go-json"

	"github.com/gofhir/fhirpathlab/engine"
	"github.com/gofhir/fhirpathlab/pkg/evaluator"
	"github.com/gofhir/fhirpathlab/pkg/param"
)

// Entry is one request read from an input stream.
type Entry struct {
	// Index is the position of the request in the stream.
	Index int

	// Request is the decoded request, zero when Err is set.
	Request engine.Request

	// Err is set when the entry was valid JSON but not a usable request.
	Err error
}

// Decode reads requests from r and calls fn for each one in order.
//
// The input is either a JSON array of requests or a sequence of request
// objects (NDJSON or concatenated JSON). Each element is either a request
// object ({"expression", "resource", "tree", "trace", "variables"}) or a
// FHIR Parameters resource carrying "expression" and "resource" parameters
// and optionally a "variables" parameter with one part per variable.
//
// Decode returns the number of entries passed to fn. It stops at the first
// syntax error or the first error returned by fn.
func Decode(r io.Reader, fn func(Entry) error) (int, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read requests: %w", err)
	}

	decoder := gojson.NewDecoder(br)
	decoder.UseNumber()

	if first == '[' {
		token, err := decoder.Token()
		if err != nil {
			return 0, fmt.Errorf("failed to read request array: %w", err)
		}
		if delim, ok := token.(gojson.Delim); !ok || delim != '[' {
			return 0, fmt.Errorf("expected array start, got %v", token)
		}
	}

	index := 0
	for {
		if first == '[' && !decoder.More() {
			break
		}

		var raw gojson.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			if first != '[' && errors.Is(err, io.EOF) {
				break
			}
			return index, fmt.Errorf("failed to decode request %d: %w", index, err)
		}

		entry := Entry{Index: index}
		entry.Request, entry.Err = ParseRequest(raw)
		if err := fn(entry); err != nil {
			return index, err
		}
		index++
	}
	return index, nil
}

// ParseRequest decodes one request object or Parameters resource.
func ParseRequest(data []byte) (engine.Request, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return engine.Request{}, fmt.Errorf("request must be a JSON object")
	}

	if rt, err := jsonparser.GetString(data, "resourceType"); err == nil {
		if rt != param.ResourceTypeParameters {
			return engine.Request{}, fmt.Errorf("expected FHIR Parameters resource, got %s", rt)
		}
		return fromParameters(data)
	}

	var req engine.Request
	if err := gojson.Unmarshal(data, &req); err != nil {
		return engine.Request{}, fmt.Errorf("failed to decode request: %w", err)
	}
	return req, nil
}

// fromParameters reads the evaluation inputs of a Parameters resource.
// The resource may be given inline or as a JSON string in a json-value
// extension.
func fromParameters(data []byte) (engine.Request, error) {
	var req engine.Request
	_, err := jsonparser.ArrayEach(data, func(p []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if dataType != jsonparser.Object {
			return
		}
		name, _ := jsonparser.GetString(p, "name")
		switch name {
		case "id":
			req.ID, _ = jsonparser.GetString(p, "valueString")
		case "expression":
			req.Expression, _ = jsonparser.GetString(p, "valueString")
		case "resource":
			if res, t, _, err := jsonparser.Get(p, "resource"); err == nil && t == jsonparser.Object {
				req.Resource = append(gojson.RawMessage(nil), res...)
				return
			}
			if text, ok := jsonValueExtension(p); ok {
				req.Resource = gojson.RawMessage(text)
			}
		case "parseDebugTreeJs":
			if text, err := jsonparser.GetString(p, "valueString"); err == nil {
				req.Tree = gojson.RawMessage(text)
			}
		case "trace":
			if text, err := jsonparser.GetString(p, "valueString"); err == nil {
				req.Trace = gojson.RawMessage(text)
			}
		case "variables":
			if req.Variables == nil {
				req.Variables = make(map[string]evaluator.Variable)
			}
			readVariables(p, req.Variables)
		}
	}, "parameter")
	if err != nil && !errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return engine.Request{}, fmt.Errorf("failed to read Parameters: %w", err)
	}
	return req, nil
}

func jsonValueExtension(p []byte) (string, bool) {
	var (
		text  string
		found bool
	)
	_, _ = jsonparser.ArrayEach(p, func(ext []byte, _ jsonparser.ValueType, _ int, _ error) {
		if found {
			return
		}
		if url, _ := jsonparser.GetString(ext, "url"); url != param.JSONValueURL {
			return
		}
		if v, err := jsonparser.GetString(ext, "valueString"); err == nil {
			text, found = v, true
		}
	}, "extension")
	return text, found
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
