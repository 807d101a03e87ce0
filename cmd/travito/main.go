package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/travito/travito/internal/app"
)

func main() {
	// .env.local wins over .env; neither overrides the real environment.
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", file, err)
			os.Exit(1)
		}
	}

	if err := app.Run(context.Background(), os.Stdout); err != nil {
		slog.Error("travito exited", "error", err)
		os.Exit(1)
	}
}
