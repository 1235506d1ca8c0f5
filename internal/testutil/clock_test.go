package testutil

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicClock_StartsAtBase(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, "2023-10-27T10:30:00.001Z", clock.Next())
	assert.Equal(t, "2023-10-27T10:30:00.002Z", clock.Next())
	assert.Equal(t, int64(2), clock.Current())
}

func TestDeterministicClock_Reset(t *testing.T) {
	clock := NewDeterministicClock()
	first := clock.Next()
	clock.Next()

	clock.Reset()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, first, clock.Next())
}

func TestDeterministicClock_Offset(t *testing.T) {
	zone := time.FixedZone("JST", 9*60*60)
	clock := NewDeterministicClockAt(time.Date(2024, 1, 2, 3, 4, 5, 0, zone))
	assert.Equal(t, "2024-01-02T03:04:05.001+09:00", clock.Next())
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	clock := NewDeterministicClock()
	const numGoroutines = 50
	const callsPerGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	var mu sync.Mutex
	seen := make(map[string]bool)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				ts := clock.Next()
				mu.Lock()
				seen[ts] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, numGoroutines*callsPerGoroutine, "every timestamp is unique")
}

func TestLogBuilder(t *testing.T) {
	logs := NewLogBuilder().
		PlanStart().
		Resource("aws_instance.foo").
		RPCCall("/plugin.Provider/ApplyResourceChange", `{"id":"1"}`, `{"id":"1","status":"ok"}`).
		HTTPRequest("GET", "https://ec2.amazonaws.com/", `{}`, `{}`).
		HTTPResponse("GET", "https://ec2.amazonaws.com/", 200, `{}`, `{"ok":true}`).
		Raw("garbage").
		ApplyComplete()

	lines := logs.Lines()
	require.Len(t, lines, 8)
	assert.Equal(t, `2023-10-27T10:30:00.002Z [INFO] terraform: Applied resource "aws_instance.foo"`, lines[1])
	assert.Equal(t,
		`2023-10-27T10:30:00.003Z [DEBUG] provider.stdio: grpc: SERVER_US: /plugin.Provider/ApplyResourceChange body={"id":"1"}`,
		lines[2])
	assert.Contains(t, lines[5], `HTTP Response: GET https://ec2.amazonaws.com/ status=200 headers={} body={"ok":true}`)
	assert.Equal(t, "garbage", lines[6])
	assert.True(t, strings.HasSuffix(logs.String(), "\n"))
	assert.Empty(t, NewLogBuilder().String())
}
