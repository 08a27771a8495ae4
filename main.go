/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>

*/
package main

import "github.com/pjw57/nowspinning/cmd"

func main() {
	cmd.Execute()
}
