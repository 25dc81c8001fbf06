// eval contains a tool for evaluating the dgram transport against real
// loopback sockets.
package main

import (
	"github.com/andydunstall/dgram/eval/cmd"
)

func main() {
	cmd.Execute()
}
