// Command copyflow is the CopyFlow copywriting assistant.
package main

import (
	"github.com/joho/godotenv"

	"github.com/copyflow-project/copyflow/internal/cli"
)

func main() {
	// A missing .env is normal; the environment may already carry the key.
	_ = godotenv.Load()
	cli.Execute()
}
