package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tftrace/internal/testutil"
	"github.com/roach88/tftrace/internal/trace"
)

func apiRequest(t *testing.T, e trace.Event) *trace.ApiRequest {
	t.Helper()
	req, ok := e.(*trace.ApiRequest)
	require.True(t, ok, "expected *trace.ApiRequest, got %T", e)
	return req
}

func TestParse_HTTPExchange(t *testing.T) {
	logs := testutil.NewLogBuilder().
		PlanStart().
		Resource("aws_s3_bucket.logs").
		HTTPRequest("PUT", "https://s3.amazonaws.com/logs", `{"Content-Type":"application/xml"}`, `{"acl":"private"}`).
		HTTPResponse("PUT", "https://s3.amazonaws.com/logs", 200, `{"X-Amz-Request-Id":"abc"}`, `{"ok":true}`)

	tr, stats := parseLogs(t, logs)

	op, ok := tr.Phase("plan").Lookup("aws_s3_bucket.logs")
	require.True(t, ok)
	require.Len(t, op.Events, 1)

	req := apiRequest(t, op.Events[0])
	assert.Equal(t, "PUT", req.Method)
	assert.Equal(t, "https://s3.amazonaws.com/logs", req.URL)
	assert.Equal(t, "PUT https://s3.amazonaws.com/logs", req.Identifier())
	assert.Equal(t, trace.Object{"Content-Type": trace.String("application/xml")}, req.RequestHeaders)
	assert.Equal(t, trace.Object{"acl": trace.String("private")}, req.RequestBody)
	assert.Equal(t, 200, req.ResponseStatus)
	assert.Equal(t, trace.Object{"X-Amz-Request-Id": trace.String("abc")}, req.ResponseHeaders)
	assert.Equal(t, trace.Object{"ok": trace.Bool(true)}, req.ResponseBody)
	assert.Zero(t, stats.MalformedBodies)
}

func TestParse_HTTPPairsByMethodAndURL(t *testing.T) {
	logs := testutil.NewLogBuilder().
		PlanStart().
		Resource("aws_instance.foo").
		HTTPRequest("GET", "https://ec2/a", `{}`, `{"n":1}`).
		HTTPRequest("POST", "https://ec2/a", `{}`, `{"n":2}`).
		HTTPRequest("GET", "https://ec2/b", `{}`, `{"n":3}`).
		HTTPResponse("GET", "https://ec2/b", 404, `{}`, `{}`).
		HTTPResponse("GET", "https://ec2/a", 200, `{}`, `{}`).
		HTTPResponse("POST", "https://ec2/a", 201, `{}`, `{}`)

	tr, stats := parseLogs(t, logs)

	op, _ := tr.Phase("plan").Lookup("aws_instance.foo")
	require.Len(t, op.Events, 3)

	assert.Equal(t, "GET https://ec2/b", op.Events[0].Identifier())
	assert.Equal(t, 404, apiRequest(t, op.Events[0]).ResponseStatus)
	assert.Equal(t, "GET https://ec2/a", op.Events[1].Identifier())
	assert.Equal(t, 200, apiRequest(t, op.Events[1]).ResponseStatus)
	assert.Equal(t, "POST https://ec2/a", op.Events[2].Identifier())
	assert.Equal(t, 201, apiRequest(t, op.Events[2]).ResponseStatus)
	assert.Zero(t, stats.PendingDiscarded)
}

func TestParse_HTTPAndRPCQueuesAreSeparate(t *testing.T) {
	logs := testutil.NewLogBuilder().
		PlanStart().
		Resource("aws_instance.foo").
		RPCRequest(applyMethod, `{}`).
		HTTPRequest("POST", "https://ec2/", `{}`, `{}`).
		HTTPResponse("POST", "https://ec2/", 200, `{}`, `{}`).
		RPCResponse(applyMethod, `{}`)

	tr, _ := parseLogs(t, logs)

	op, _ := tr.Phase("plan").Lookup("aws_instance.foo")
	require.Len(t, op.Events, 2)
	assert.Equal(t, trace.KindApiRequest, op.Events[0].Kind())
	assert.Equal(t, trace.KindProviderCall, op.Events[1].Kind())
}

func TestParse_HTTPUnmatchedResponse(t *testing.T) {
	logs := testutil.NewLogBuilder().
		PlanStart().
		Resource("aws_instance.foo").
		HTTPResponse("GET", "https://ec2/", 200, `{}`, `{}`)

	tr, stats := parseLogs(t, logs)
	assert.Equal(t, 0, tr.EventCount())
	assert.Equal(t, 1, stats.UnmatchedResponses)
}

func TestParse_HTTPMalformedSegments(t *testing.T) {
	logs := testutil.NewLogBuilder().
		PlanStart().
		Resource("aws_instance.foo").
		HTTPRequest("GET", "https://ec2/", `["not","an","object"]`, `{"ok":true}`).
		HTTPResponse("GET", "https://ec2/", 500, `{}`, `{broken`)

	tr, stats := parseLogs(t, logs)

	op, _ := tr.Phase("plan").Lookup("aws_instance.foo")
	require.Len(t, op.Events, 1)
	req := apiRequest(t, op.Events[0])
	assert.Equal(t, trace.EmptyObject(), req.RequestHeaders)
	assert.Equal(t, trace.Object{"ok": trace.Bool(true)}, req.RequestBody)
	assert.Equal(t, trace.EmptyObject(), req.ResponseBody)
	assert.Equal(t, 500, req.ResponseStatus)
	assert.Equal(t, 2, stats.MalformedBodies)
}

func TestSplitSegments(t *testing.T) {
	tests := []struct {
		name string
		rest string
		want segments
		ok   bool
	}{
		{name: "empty", rest: "", ok: true},
		{name: "headers and body", rest: ` headers={"a":"b"} body={"c":1}`, want: segments{headers: `{"a":"b"}`, body: `{"c":1}`}, ok: true},
		{name: "body only", rest: ` body={"c":1}`, want: segments{body: `{"c":1}`}, ok: true},
		{name: "headers only", rest: ` headers={"a":"b"}`, want: segments{headers: `{"a":"b"}`}, ok: true},
		{name: "body marker inside headers", rest: ` headers={"x":"body=1"} body={}`, want: segments{headers: `{"x":"body=1"}`, body: `{}`}, ok: true},
		{name: "truncated headers", rest: ` headers={"a":`, want: segments{headers: `{"a":`}, ok: false},
		{name: "trailing junk", rest: ` whatever`, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := splitSegments(tt.rest)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeBody(t *testing.T) {
	v, ok := decodeBody("")
	assert.True(t, ok)
	assert.Equal(t, trace.EmptyObject(), v)

	v, ok = decodeBody(`  {"a":[1,2]}  `)
	assert.True(t, ok)
	assert.Equal(t, trace.Object{"a": trace.Array{trace.Number("1"), trace.Number("2")}}, v)

	v, ok = decodeBody(`"scalar"`)
	assert.True(t, ok)
	assert.Equal(t, trace.String("scalar"), v)

	v, ok = decodeBody(`{"a":`)
	assert.False(t, ok)
	assert.Equal(t, trace.EmptyObject(), v)
}
