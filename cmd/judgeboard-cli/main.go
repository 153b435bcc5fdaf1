// Command judgeboard-cli is the operator tool for a judgeboard bucket: print
// the leaderboard, explain a participant's run selection, or seed demo data.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; values may come from the real environment.
	_ = godotenv.Load()

	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
