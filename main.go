// Package main is the entry point for the jsgate CLI.
package main

import "jsgate.dev/pkg/jsgate/cmd"

func main() {
	cmd.Execute()
}
