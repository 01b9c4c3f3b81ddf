package main

import "github.com/stoik/email-fraud-classifier/internal/cli"

func main() {
	cli.Execute()
}
