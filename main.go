package main

import "lensreport/cmd"

func main() {
	cmd.Execute()
}
