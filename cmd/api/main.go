package main

import (
	"context"
	"log"

	_ "github.com/joho/godotenv/autoload"

	"github.com/Apurer/go-gin-commerce/internal/app/api"
)

func main() {
	if err := api.Run(context.Background()); err != nil {
		log.Fatalf("commerce api: %v", err)
	}
}
