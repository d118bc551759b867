package ast

import (
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
)

// ErrNotObject is returned when a parse tree node is not a JSON object.
var ErrNotObject = errors.New("parse tree node is not a JSON object")

// Decode reads a parse tree in the JSON layout of the fhirpath.js parser:
//
//	{"type": "...", "text": "...", "start": {"line": 1, "column": 1},
//	 "length": 3, "children": [...]}
//
// Unknown keys are ignored.
func Decode(data []byte) (*RawNode, error) {
	_, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, fmt.Errorf("decode parse tree: %w", err)
	}
	if dataType != jsonparser.Object {
		return nil, ErrNotObject
	}
	return decodeNode(data)
}

func decodeNode(data []byte) (*RawNode, error) {
	n := &RawNode{}
	err := jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		if dataType == jsonparser.Null {
			return nil
		}
		var err error
		switch string(key) {
		case "type":
			n.Type, err = jsonparser.ParseString(value)
		case "text":
			n.Text, err = jsonparser.ParseString(value)
		case "delimitedText":
			n.DelimitedText, err = jsonparser.ParseString(value)
		case "length":
			var length int64
			length, err = jsonparser.ParseInt(value)
			n.Length = int(length)
		case "start":
			n.Start, err = decodePosition(value)
		case "children":
			n.Children, err = decodeChildren(value)
		}
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

func decodePosition(data []byte) (*Position, error) {
	line, err := jsonparser.GetInt(data, "line")
	if err != nil {
		return nil, err
	}
	column, err := jsonparser.GetInt(data, "column")
	if err != nil {
		return nil, err
	}
	return &Position{Line: int(line), Column: int(column)}, nil
}

func decodeChildren(data []byte) ([]*RawNode, error) {
	var (
		children []*RawNode
		firstErr error
	)
	_, err := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if firstErr != nil {
			return
		}
		if dataType != jsonparser.Object {
			firstErr = ErrNotObject
			return
		}
		child, err := decodeNode(value)
		if err != nil {
			firstErr = err
			return
		}
		children = append(children, child)
	})
	if err != nil {
		return nil, err
	}
	return children, firstErr
}

// ExpressionRoot returns the expression node of a full parser result. The
// parser wraps the expression in two single-child levels (the parse result
// and the entire-expression production), which are not displayed.
func ExpressionRoot(parsed *RawNode) *RawNode {
	n := parsed
	for range 2 {
		if n == nil || len(n.Children) == 0 {
			break
		}
		n = n.Children[0]
	}
	return n
}
