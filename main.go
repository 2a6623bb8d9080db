package main

import "github.com/frahmantamala/hr-approvals/cmd"

func main() {
	cmd.Execute()
}
