package main

import "github.com/maltedev/marketplace-scraper/cmd/marketplace/cmd"

func main() {
	cmd.Execute()
}
