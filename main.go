package main

import "github.com/joern1811/wapay/internal/cmd"

func main() {
	cmd.Execute()
}
