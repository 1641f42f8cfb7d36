package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"appraisal/pkg/client"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			fmt.Fprintln(os.Stderr, "session expired, run evalctl login")
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
