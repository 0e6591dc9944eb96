// Command steamwake keeps the machine awake while Steam is downloading.
package main

import "github.com/steamwake/steamwake/cmd"

func main() {
	cmd.Execute()
}
