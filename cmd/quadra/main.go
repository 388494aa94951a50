package main

import "github.com/quadra-ocr/quadra/cmd/quadra/cmd"

func main() {
	cmd.Execute()
}
