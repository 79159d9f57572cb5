package main

import (
	"github.com/ReamLabs/ream-sub002/cmd/leannode/cmd"
)

func main() {
	cmd.Execute()
}
