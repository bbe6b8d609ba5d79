/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/agegate/webapp/cmd"

func main() {
	cmd.Execute()
}
