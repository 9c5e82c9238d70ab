package main

import "github.com/varalys/cmdguard/cmd/cmdguard"

func main() { cmdguard.Execute() }
