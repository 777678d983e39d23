package main

import (
	"context"
	"log"

	_ "github.com/joho/godotenv/autoload"

	"github.com/Apurer/go-gin-commerce/internal/app/notifier"
)

func main() {
	if err := notifier.Run(context.Background()); err != nil {
		log.Fatalf("commerce notifier: %v", err)
	}
}
