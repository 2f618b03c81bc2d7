// Command seed loads the pharmacy catalog from a JSON file into the shops table.
// Entries may list local image files, which are uploaded to S3 after import.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"mime"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/medtrax-api/internal/application/shop"
	"github.com/medtrax-api/internal/config"
	"github.com/medtrax-api/internal/domain"
	"github.com/medtrax-api/internal/infrastructure/awsx"
	"github.com/medtrax-api/internal/infrastructure/dynamo"
	s3infra "github.com/medtrax-api/internal/infrastructure/s3"
	"github.com/medtrax-api/internal/pkg/logger"
	"go.uber.org/zap"
)

type seedShop struct {
	domain.Shop
	ImageFiles []string `json:"imageFiles"`
}

func main() {
	file := flag.String("file", "shops.json", "path to the shop catalog JSON array")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	entries, err := readCatalog(*file)
	if err != nil {
		zl.Fatal("read catalog", zap.String("file", *file), zap.Error(err))
	}

	ctx := context.Background()
	awsCfg, err := awsx.Load(ctx, cfg, cfg.AWSRegion)
	if err != nil {
		zl.Fatal("aws config", zap.Error(err))
	}
	dynamoClient := dynamo.NewClient(awsCfg, cfg.AWSEndpointURL)
	if !cfg.IsProduction() {
		dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables, zl)
	}

	svc := shop.NewService(shop.ServiceDeps{
		ShopRepo:    dynamo.NewShopRepo(dynamoClient, cfg.DynamoTables.Shops),
		ReviewRepo:  dynamo.NewReviewRepo(dynamoClient, cfg.DynamoTables.Reviews, cfg.DynamoTables.Shops),
		UserRepo:    dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		ObjectStore: s3infra.NewStore(s3infra.NewClient(awsCfg, cfg.AWSEndpointURL), cfg.S3BucketName, cfg.AWSRegion, cfg.S3PublicBaseURL),
	})

	shops := make([]domain.Shop, len(entries))
	for i := range entries {
		shops[i] = entries[i].Shop
	}
	n, err := svc.Import(ctx, shops)
	if err != nil {
		zl.Fatal("import", zap.Int("imported", n), zap.Error(err))
	}
	zl.Info("shops imported", zap.Int("count", n))

	base := filepath.Dir(*file)
	for i, e := range entries {
		for _, img := range e.ImageFiles {
			if err := uploadImage(ctx, svc, shops[i].ShopID, filepath.Join(base, img)); err != nil {
				zl.Warn("image upload failed", zap.String("shop", shops[i].ShopID), zap.String("file", img), zap.Error(err))
			}
		}
	}
}

func readCatalog(path string) ([]seedShop, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []seedShop
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func uploadImage(ctx context.Context, svc shop.Service, shopID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = svc.UploadShopImage(ctx, shopID, f, mime.TypeByExtension(filepath.Ext(path)))
	return err
}
