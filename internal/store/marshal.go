package store

import (
	"bytes"
	"database/sql"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/roach88/tftrace/internal/trace"
)

// snapshotVersion is bumped whenever the snapshot layout changes.
const snapshotVersion uint16 = 1

// snapshot is the msgpack layout of a stored trace.
type snapshot struct {
	Schema uint16          `msgpack:"schema"`
	Phases []phaseSnapshot `msgpack:"phases"`
}

type phaseSnapshot struct {
	Name      string             `msgpack:"name"`
	Resources []resourceSnapshot `msgpack:"resources"`
}

type resourceSnapshot struct {
	Address string      `msgpack:"address"`
	Events  []valueNode `msgpack:"events"`
}

// Value node kinds.
const (
	nodeNull uint8 = iota
	nodeString
	nodeNumber
	nodeBool
	nodeArray
	nodeObject
)

// valueNode carries a trace.Value through msgpack without losing the
// difference between a number literal and a string.
type valueNode struct {
	Kind   uint8                `msgpack:"k"`
	Text   string               `msgpack:"t,omitempty"`
	Bool   bool                 `msgpack:"b,omitempty"`
	Items  []valueNode          `msgpack:"i,omitempty"`
	Fields map[string]valueNode `msgpack:"f,omitempty"`
}

func toNode(v trace.Value) valueNode {
	switch val := v.(type) {
	case trace.String:
		return valueNode{Kind: nodeString, Text: string(val)}
	case trace.Number:
		return valueNode{Kind: nodeNumber, Text: string(val)}
	case trace.Bool:
		return valueNode{Kind: nodeBool, Bool: bool(val)}
	case trace.Array:
		items := make([]valueNode, len(val))
		for i, elem := range val {
			items[i] = toNode(elem)
		}
		return valueNode{Kind: nodeArray, Items: items}
	case trace.Object:
		fields := make(map[string]valueNode, len(val))
		for k, elem := range val {
			fields[k] = toNode(elem)
		}
		return valueNode{Kind: nodeObject, Fields: fields}
	default:
		return valueNode{Kind: nodeNull}
	}
}

func fromNode(n valueNode) (trace.Value, error) {
	switch n.Kind {
	case nodeNull:
		return trace.Null{}, nil
	case nodeString:
		return trace.String(n.Text), nil
	case nodeNumber:
		return trace.Number(n.Text), nil
	case nodeBool:
		return trace.Bool(n.Bool), nil
	case nodeArray:
		arr := make(trace.Array, len(n.Items))
		for i, item := range n.Items {
			v, err := fromNode(item)
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return arr, nil
	case nodeObject:
		obj := make(trace.Object, len(n.Fields))
		for k, item := range n.Fields {
			v, err := fromNode(item)
			if err != nil {
				return nil, err
			}
			obj[k] = v
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unknown value node kind %d", n.Kind)
	}
}

// encodeSnapshot serializes a trace for the run_traces table.
func encodeSnapshot(t *trace.Trace) ([]byte, error) {
	snap := snapshot{Schema: snapshotVersion, Phases: make([]phaseSnapshot, len(t.Phases))}
	for i, p := range t.Phases {
		ops := p.Operations()
		ps := phaseSnapshot{Name: p.Name, Resources: make([]resourceSnapshot, len(ops))}
		for j, op := range ops {
			rs := resourceSnapshot{Address: op.Address, Events: make([]valueNode, len(op.Events))}
			for k, e := range op.Events {
				rs.Events[k] = toNode(e.Fields())
			}
			ps.Resources[j] = rs
		}
		snap.Phases[i] = ps
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(&snap); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeSnapshot rebuilds a trace from encodeSnapshot output.
func decodeSnapshot(data []byte) (*trace.Trace, error) {
	var snap snapshot
	if err := msgpack.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Schema != snapshotVersion {
		return nil, fmt.Errorf("decode snapshot: unsupported schema %d (want %d)", snap.Schema, snapshotVersion)
	}

	t := trace.New()
	for _, ps := range snap.Phases {
		p := t.AddPhase(ps.Name)
		for _, rs := range ps.Resources {
			op := p.Operation(rs.Address)
			for i, node := range rs.Events {
				v, err := fromNode(node)
				if err != nil {
					return nil, fmt.Errorf("decode snapshot: %s/%s event %d: %w", ps.Name, rs.Address, i, err)
				}
				obj, ok := v.(trace.Object)
				if !ok {
					return nil, fmt.Errorf("decode snapshot: %s/%s event %d is not an object", ps.Name, rs.Address, i)
				}
				e, err := trace.EventFromFields(obj)
				if err != nil {
					return nil, fmt.Errorf("decode snapshot: %s/%s event %d: %w", ps.Name, rs.Address, i, err)
				}
				op.Append(e)
			}
		}
	}
	return t, nil
}

// marshalValue converts a diff value to canonical JSON TEXT; nil stays NULL.
func marshalValue(v trace.Value) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := trace.MarshalCanonical(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal value: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalValue parses canonical JSON TEXT; NULL becomes nil.
func unmarshalValue(data sql.NullString) (trace.Value, error) {
	if !data.Valid {
		return nil, nil
	}
	v, err := trace.ParseJSON([]byte(data.String))
	if err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}
	return v, nil
}
