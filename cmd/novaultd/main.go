package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/JLSed/Novault/internal/server"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	mongoURI := flag.String("mongo", "mongodb://localhost:27017", "MongoDB URI")
	mongoDB := flag.String("db", "novault", "Mongo database name")
	issuer := flag.String("issuer", "", "JWT issuer")
	tokenTTL := flag.Duration("token-ttl", 15*time.Minute, "JWT lifetime")
	flag.Parse()

	logger := log.New(log.Writer(), "[novaultd] ", log.LstdFlags)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	s, err := server.New(ctx, server.Config{
		MongoURI:  *mongoURI,
		MongoDB:   *mongoDB,
		JWTIssuer: *issuer,
		TokenTTL:  *tokenTTL,
	})
	cancel()
	if err != nil {
		logger.Fatalf("startup: %v", err)
	}

	logger.Printf("listening on %s", *addr)
	logger.Fatal(http.ListenAndServe(*addr, s.Handler()))
}
