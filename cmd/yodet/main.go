package main

import "github.com/cropvision/yodet/cmd/yodet/cmd"

func main() {
	cmd.Execute()
}
