package main

import "github.com/ValentinKolb/dTetris/cmd"

func main() {
	cmd.Execute()
}
