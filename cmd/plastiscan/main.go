package main

import "github.com/MeKo-Tech/plastiscan/cmd/plastiscan/cmd"

func main() {
	cmd.Execute()
}
