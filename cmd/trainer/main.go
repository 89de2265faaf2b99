package main

import "github.com/vocabtrainer/backend/cmd/trainer/cmd"

func main() {
	cmd.Execute()
}
