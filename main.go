package main

import "github.com/Gradipoo/tui-jxl-converter/cmd"

func main() {
	cmd.Execute()
}
