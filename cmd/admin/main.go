// Command admin grants, revokes and lists admin rights.
package main

import (
	"context"
	"fmt"
	"os"

	"artfeed/internal/bootstrap"
	"artfeed/internal/config"
	"artfeed/internal/database"
	"artfeed/internal/observability"

	"go.uber.org/zap"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  admin promote <username>   - Grant admin rights")
	fmt.Println("  admin demote <username>    - Revoke admin rights")
	fmt.Println("  admin list                 - List all admins")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		observability.Logger.Fatal("failed to load configuration", zap.Error(err))
	}
	db, err := database.Connect(cfg)
	if err != nil {
		observability.Logger.Fatal("failed to connect to database", zap.Error(err))
	}
	ctx := context.Background()

	switch cmd := os.Args[1]; cmd {
	case "promote", "demote":
		if len(os.Args) < 3 {
			usage()
		}
		username := os.Args[2]
		changed, err := bootstrap.SetAdmin(ctx, db, username, cmd == "promote")
		if err != nil {
			fmt.Printf("%s %s: %v\n", cmd, username, err)
			os.Exit(1)
		}
		if !changed {
			fmt.Printf("%s: nothing to do\n", username)
			return
		}
		fmt.Printf("%s: done\n", username)

	case "list":
		admins, err := bootstrap.ListAdmins(ctx, db)
		if err != nil {
			fmt.Printf("list admins: %v\n", err)
			os.Exit(1)
		}
		for _, u := range admins {
			fmt.Printf("%d\t%s\t%s\n", u.ID, u.Username, u.Email)
		}

	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		usage()
	}
}
