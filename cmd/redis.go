package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"BeatWave/config"
	"BeatWave/db"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Test the Redis connection",
	Long:  `Test that Redis is reachable and that basic read/write operations work.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("Redis: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := db.ConnectRedis(cfg); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		fmt.Println("Redis connection successful.")

		if err := db.TestRedis(); err != nil {
			log.Fatalf("Redis operation test failed: %v", err)
		}
		fmt.Println("Redis basic operations OK.")

		if err := db.CloseRedis(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
