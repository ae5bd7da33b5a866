// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig handles
// framework-level settings (ports, TLS, logging, CORS); AppConfig is
// everything specific to this service.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Bearer-token verification. The shared secret the external auth
	// system signs its HS256 tokens with.
	AuthJWTSecret string

	// File storage configuration
	StorageType      string // Storage backend: "local" or "s3"
	StorageLocalPath string // Local storage path (e.g., "./uploads/group-files")
	StorageLocalURL  string // URL prefix for serving local files

	// S3 configuration (only used if StorageType is "s3")
	StorageS3Region string // AWS region
	StorageS3Bucket string // S3 bucket name
	StorageS3Prefix string // Key prefix (e.g., "group-files/")
}
