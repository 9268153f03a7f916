package main

import (
	"github.com/javierturcios2607/ingestor/internal/cmd"
)

func main() {
	cmd.Execute()
}
