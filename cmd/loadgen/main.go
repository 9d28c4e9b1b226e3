package main

import (
	"log"

	tool "github.com/Shalbulov/zentro-risk-prediction/internal/tools/loadgen"
)

func main() {
	if err := tool.NewRootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}
