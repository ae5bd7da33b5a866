// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for TaskHive.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, auth_jwt_secret, etc.
//   - Environment variables: TASKHIVE_MONGO_URI, TASKHIVE_AUTH_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --auth_jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "taskhive", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Bearer-token verification
	{Name: "auth_jwt_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "HS256 secret shared with the auth system (must be strong in production)"},

	// File storage configuration
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads/group-files", Desc: "Local storage path for uploaded files"},
	{Name: "storage_local_url", Default: "/files/group-files", Desc: "URL prefix for serving local files"},

	// S3 configuration
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "group-files/", Desc: "S3 key prefix"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// CoreConfig comes from the shared WAFFLE layer; AppConfig is specific
// to this app. Merging precedence: flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "TASKHIVE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		AuthJWTSecret: appValues.String("auth_jwt_secret"),

		StorageType:      appValues.String("storage_type"),
		StorageLocalPath: appValues.String("storage_local_path"),
		StorageLocalURL:  appValues.String("storage_local_url"),

		StorageS3Region: appValues.String("storage_s3_region"),
		StorageS3Bucket: appValues.String("storage_s3_bucket"),
		StorageS3Prefix: appValues.String("storage_s3_prefix"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI is checked up front to catch configuration errors
// before attempting to connect, and the default JWT secret is rejected
// outside dev so a misdeployed instance cannot accept forged tokens.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if coreCfg.Env != "dev" && appCfg.AuthJWTSecret == "dev-only-change-me-please-0123456789ABCDEF" {
		return fmt.Errorf("auth_jwt_secret must be set to a real secret outside dev")
	}

	if appCfg.StorageType == "s3" && (appCfg.StorageS3Region == "" || appCfg.StorageS3Bucket == "") {
		return fmt.Errorf("s3 storage requires storage_s3_region and storage_s3_bucket")
	}

	return nil
}
