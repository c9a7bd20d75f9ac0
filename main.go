package main

import "github.com/jmehdipour/sms-broker/cmd"

func main() {
	cmd.Execute()
}
