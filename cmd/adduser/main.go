// adduser seeds or updates a directory entry, hashing the password with
// bcrypt. Intended for bootstrapping dev and staging environments.
//
// Usage:
//
//	adduser -sub u1 -email u1@example.com -name "User One" -password secret -roles user,admin
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/apifoundry/apifoundry/internal/config"
	"github.com/apifoundry/apifoundry/internal/database"
	"github.com/apifoundry/apifoundry/internal/users"
	"github.com/apifoundry/apifoundry/pkg/logger"
)

func main() {
	sub := flag.String("sub", "", "stable subject identifier (required)")
	email := flag.String("email", "", "email address (required)")
	name := flag.String("name", "", "display name")
	password := flag.String("password", "", "plaintext password to hash (required)")
	roles := flag.String("roles", "user", "comma-separated role list")
	flag.Parse()

	if *sub == "" || *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if cfg.MongoDB.URI == "" {
		logger.Fatalf("MONGODB_URI is required to seed users")
	}

	ctx := context.Background()
	client, err := database.Connect(ctx, cfg.MongoDB)
	if err != nil {
		logger.Fatalf("failed to connect to MongoDB: %v", err)
	}
	defer func() {
		_ = client.Disconnect(ctx)
	}()

	repo := users.NewMongoRepository(database.Users(client, cfg.MongoDB))
	svc := users.NewService(repo)

	roleList := strings.Split(*roles, ",")
	for i := range roleList {
		roleList[i] = strings.TrimSpace(roleList[i])
	}

	u, err := svc.Register(ctx, *sub, *email, *name, *password, roleList)
	if err != nil {
		logger.Fatalf("failed to upsert user: %v", err)
	}
	fmt.Printf("upserted user sub=%s email=%s roles=%v\n", u.Sub, u.Email, u.Roles)
}
