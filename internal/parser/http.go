package parser

import (
	"regexp"
	"strconv"

	"github.com/roach88/tftrace/internal/trace"
)

// http.Tracer message shapes:
//
//	HTTP Request: <METHOD> <URL> headers=<json> body=<json>
//	HTTP Response: <METHOD> <URL> status=<code> headers=<json> body=<json>
var (
	httpRequestPattern = regexp.MustCompile(
		`^HTTP Request:\s+(?P<method>[A-Z]+)\s+(?P<url>\S+)(?P<rest>.*)$`,
	)
	httpResponsePattern = regexp.MustCompile(
		`^HTTP Response:\s+(?P<method>[A-Z]+)\s+(?P<url>\S+)\s+status=(?P<status>\d{3})(?P<rest>.*)$`,
	)
)

// httpKey is the correlation key of an HTTP exchange.
func httpKey(method, url string) string {
	return method + " " + url
}

// handleHTTP pairs HTTP requests and responses by method and URL, FIFO.
func (p *Parser) handleHTTP(line LogLine) {
	if match := httpRequestPattern.FindStringSubmatch(line.Message); match != nil {
		p.handleHTTPRequest(
			match[httpRequestPattern.SubexpIndex("method")],
			match[httpRequestPattern.SubexpIndex("url")],
			match[httpRequestPattern.SubexpIndex("rest")],
		)
		return
	}

	if match := httpResponsePattern.FindStringSubmatch(line.Message); match != nil {
		status, _ := strconv.Atoi(match[httpResponsePattern.SubexpIndex("status")])
		p.handleHTTPResponse(
			match[httpResponsePattern.SubexpIndex("method")],
			match[httpResponsePattern.SubexpIndex("url")],
			status,
			match[httpResponsePattern.SubexpIndex("rest")],
		)
	}
}

func (p *Parser) handleHTTPRequest(method, url, rest string) {
	key := httpKey(method, url)
	headers, body := p.decodeSegments(rest, key)

	p.pendingHTTP[key] = append(p.pendingHTTP[key], &trace.ApiRequest{
		Method:         method,
		URL:            url,
		RequestHeaders: headers,
		RequestBody:    body,
	})
}

func (p *Parser) handleHTTPResponse(method, url string, status int, rest string) {
	key := httpKey(method, url)
	headers, body := p.decodeSegments(rest, key)

	req, found := popFront(p.pendingHTTP, key)
	if !found {
		p.stats.UnmatchedResponses++
		p.logger.Debug("http response without request", "request", key)
		return
	}

	req.ResponseStatus = status
	req.ResponseHeaders = headers
	req.ResponseBody = body
	p.appendEvent(req)
}

// decodeSegments decodes optional headers and body, degrading each to an empty object.
func (p *Parser) decodeSegments(rest, key string) (headers, body trace.Value) {
	seg, wellFormed := splitSegments(rest)

	headers, headersOK := decodeObject(seg.headers)
	body, bodyOK := decodeBody(seg.body)

	if !wellFormed || !headersOK || !bodyOK {
		p.stats.MalformedBodies++
		p.logger.Debug("malformed http segments", "request", key)
	}
	return headers, body
}
