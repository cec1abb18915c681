package main

import "github.com/a1media/agency-dashboard/cmd"

func main() {
	cmd.Execute()
}
