package main

import (
	"weather-etl/internal/cli"
)

func main() {
	cli.Execute()
}
