package trace

import (
	"fmt"
	"strconv"
)

// EventKind is the discriminant of the Event sum type.
type EventKind string

const (
	// KindProviderCall tags a request/response pair on the provider plugin protocol.
	KindProviderCall EventKind = "provider_call"

	// KindApiRequest tags a request/response pair made by the HTTP client.
	KindApiRequest EventKind = "api_request"
)

// Event is one fully-materialized logical call.
// Only ProviderCall and ApiRequest implement it.
type Event interface {
	// Kind returns the variant tag.
	Kind() EventKind

	// Identifier returns the call identity within its variant:
	// the RPC method for provider calls, "METHOD URL" for API requests.
	Identifier() string

	// Fields returns the event as an Object, the shape compared field by field.
	Fields() Object

	event()
}

// ProviderCall is a paired request/response on the provider RPC protocol.
type ProviderCall struct {
	Method          string
	RequestPayload  Value
	ResponsePayload Value
}

func (*ProviderCall) event() {}

// Kind implements Event.
func (*ProviderCall) Kind() EventKind { return KindProviderCall }

// Identifier implements Event.
func (c *ProviderCall) Identifier() string { return c.Method }

// Fields implements Event.
func (c *ProviderCall) Fields() Object {
	return Object{
		"kind":             String(KindProviderCall),
		"method":           String(c.Method),
		"request_payload":  orEmpty(c.RequestPayload),
		"response_payload": orEmpty(c.ResponsePayload),
	}
}

// ApiRequest is a paired HTTP request/response.
type ApiRequest struct {
	Method          string
	URL             string
	RequestHeaders  Value
	RequestBody     Value
	ResponseStatus  int
	ResponseHeaders Value
	ResponseBody    Value
}

func (*ApiRequest) event() {}

// Kind implements Event.
func (*ApiRequest) Kind() EventKind { return KindApiRequest }

// Identifier implements Event.
func (r *ApiRequest) Identifier() string { return r.Method + " " + r.URL }

// Fields implements Event.
func (r *ApiRequest) Fields() Object {
	return Object{
		"kind":             String(KindApiRequest),
		"method":           String(r.Method),
		"url":              String(r.URL),
		"request_headers":  orEmpty(r.RequestHeaders),
		"request_body":     orEmpty(r.RequestBody),
		"response_status":  Number(strconv.Itoa(r.ResponseStatus)),
		"response_headers": orEmpty(r.ResponseHeaders),
		"response_body":    orEmpty(r.ResponseBody),
	}
}

func orEmpty(v Value) Value {
	if v == nil {
		return EmptyObject()
	}
	return v
}

// EventFromFields rebuilds an Event from the Object produced by Fields.
func EventFromFields(obj Object) (Event, error) {
	kind, err := stringField(obj, "kind")
	if err != nil {
		return nil, err
	}
	method, err := stringField(obj, "method")
	if err != nil {
		return nil, err
	}

	switch EventKind(kind) {
	case KindProviderCall:
		return &ProviderCall{
			Method:          method,
			RequestPayload:  orEmpty(obj["request_payload"]),
			ResponsePayload: orEmpty(obj["response_payload"]),
		}, nil
	case KindApiRequest:
		url, err := stringField(obj, "url")
		if err != nil {
			return nil, err
		}
		status := 0
		if n, ok := obj["response_status"].(Number); ok {
			d, err := n.Decimal()
			if err != nil {
				return nil, fmt.Errorf("response_status: %w", err)
			}
			status = int(d.IntPart())
		}
		return &ApiRequest{
			Method:          method,
			URL:             url,
			RequestHeaders:  orEmpty(obj["request_headers"]),
			RequestBody:     orEmpty(obj["request_body"]),
			ResponseStatus:  status,
			ResponseHeaders: orEmpty(obj["response_headers"]),
			ResponseBody:    orEmpty(obj["response_body"]),
		}, nil
	default:
		return nil, fmt.Errorf("unknown event kind %q", kind)
	}
}

func stringField(obj Object, key string) (string, error) {
	s, ok := obj[key].(String)
	if !ok {
		return "", fmt.Errorf("event field %q missing or not a string", key)
	}
	return string(s), nil
}
