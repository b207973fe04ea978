package main

import (
	"currentadda-pipeline/cmd/currentadda/commands"
	"currentadda-pipeline/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
