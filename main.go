package main

import "github.com/theirongolddev/pburn/cmd"

func main() {
	cmd.Execute()
}
