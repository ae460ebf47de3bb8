package main

import "github.com/KaramelBytes/chemeda/cmd"

func main() {
	cmd.Execute()
}
