package storage

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/prestamax/chatbot/internal/config"
)

// NewProvider builds the FileProvider selected by the ledger configuration.
func NewProvider(ctx context.Context, cfg config.LedgerConfig) (FileProvider, error) {
	switch cfg.Backend {
	case "local":
		return NewLocalFileProvider(cfg.DataDir), nil
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client := NewAWSS3Client(s3.NewFromConfig(awsCfg))
		return NewS3FileProvider(cfg.Bucket, "ledger", client), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}
