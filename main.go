package main

import "github.com/ValentinKolb/kvds/cmd"

func main() {
	cmd.Execute()
}
