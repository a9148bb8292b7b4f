// Command timesheet runs the timesheet HTTP server and month tooling.
package main

import "github.com/warp/timesheet-engine/cli"

func main() {
	cli.Execute()
}
