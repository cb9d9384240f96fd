package main

// API serves the certificate pipeline over HTTP for local companion tools.
func main() {
	startWithDig()
}
