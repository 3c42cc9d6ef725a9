package main

import "surveyhub_backend/internal/app"

func main() {
	app.Run()
}
