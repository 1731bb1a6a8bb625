package main

import (
	"os"

	"github.com/k-shtanenko/weather-app/weather-lookup/internal/bootstrap"
)

func main() {
	os.Exit(bootstrap.Run(os.Args[1:], os.Stdout, os.Stderr))
}
