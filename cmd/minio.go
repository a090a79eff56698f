package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/spf13/cobra"

	"BeatWave/config"
	"BeatWave/logger"
	"BeatWave/storage"
)

var minioPrefix string

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Inspect the MinIO bucket",
	Long:  `Verify the MinIO connection and list the objects stored in the configured bucket.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.InitLogger(logger.Config{Level: logger.LogLevel(cfg.LogLevel)})

		fmt.Printf("MinIO: %s, bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}
		fmt.Println("MinIO connection successful.")

		client := storage.GetMinioClient()
		ctx := context.Background()

		var count int
		var totalSize int64
		for object := range client.ListObjects(ctx, cfg.MinioBucket, minio.ListObjectsOptions{
			Prefix:    minioPrefix,
			Recursive: true,
		}) {
			if object.Err != nil {
				log.Fatalf("Failed to list objects: %v", object.Err)
			}
			fmt.Printf("  %s (%d bytes)\n", object.Key, object.Size)
			count++
			totalSize += object.Size
		}

		fmt.Printf("%d objects, %d bytes total\n", count, totalSize)
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "filter objects by key prefix")
}
