package main

import "timetracker/internal/app/server"

func main() {
	server.Run()
}
