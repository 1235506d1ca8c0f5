// Command tftrace parses provisioning-tool trace logs and compares them semantically.
package main

import "github.com/roach88/tftrace/internal/cli"

func main() {
	cli.Main()
}
