// Package harness runs drift scenarios: pairs of provisioning-tool logs with
// expectations about how they differ.
//
// A scenario is a YAML file naming two logs (by path or inline) plus
// assertions evaluated against the comparison:
//
//	name: status-flip
//	description: apply response status changes from ok to failed
//	left: logs/apply_ok.log
//	right: logs/apply_failed.log
//	ignore:
//	  - "**/request_id"
//	assertions:
//	  - type: diff_count
//	    count: 1
//	  - type: diff_contains
//	    kind: modified
//	    path: phase.plan.resource.aws_instance.foo.events.0.response_payload.status
//	    old: ok
//	    new: failed
//
// Log paths are resolved relative to the scenario file. Each run parses both
// logs with fresh parsers, so scenarios never share state.
//
// Golden files hold the JSON diff report of a scenario and are compared
// byte for byte.
package harness
