package main

import "travelnest/internal/app"

// @title           Travelnest API
// @version         1.0
// @description     Auth and email-verification backend for the Travelnest listings app.
// @BasePath        /
func main() {
	app.Run()
}
