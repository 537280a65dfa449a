package main

import "github.com/brentspine/discord-ticketbot/cmd"

func main() {
	cmd.Execute()
}
