package main

import "github.com/wordsift/wordsift/cmd/wordsift"

func main() { wordsift.Execute() }
