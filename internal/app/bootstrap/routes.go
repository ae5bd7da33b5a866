// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	groupsfeature "github.com/zm10123/taskhive/internal/app/features/groups"
	healthfeature "github.com/zm10123/taskhive/internal/app/features/health"
	"github.com/zm10123/taskhive/internal/app/system/auth"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this
// WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and any Startup hooks have completed. TaskHive applies the bearer-
// token middleware globally and mounts the health and groups feature
// routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	verifier, err := auth.NewVerifier(appCfg.AuthJWTSecret, logger)
	if err != nil {
		logger.Error("token verifier init failed", zap.Error(err))
		return nil, err
	}

	blobs, err := buildStorage(appCfg)
	if err != nil {
		logger.Error("storage init failed", zap.Error(err))
		return nil, err
	}

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context when the
	// request carries a valid bearer token. Enforcement happens per
	// route group via auth.RequireSignedIn.
	r.Use(verifier.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.TaskHiveMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Group collaboration API
	groupsHandler := groupsfeature.NewHandler(deps.TaskHiveMongoDatabase, blobs, logger)
	r.Mount("/groups", groupsfeature.Routes(groupsHandler))

	return r, nil
}

func buildStorage(appCfg AppConfig) (storage.Store, error) {
	switch appCfg.StorageType {
	case "local", "":
		return storage.NewLocal(storage.LocalConfig{
			BasePath: appCfg.StorageLocalPath,
			BaseURL:  appCfg.StorageLocalURL,
		})
	// TODO: wire the S3 backend once the deployment target settles;
	// the storage_s3_* keys are already reserved above.
	default:
		return nil, fmt.Errorf("unsupported storage type %q", appCfg.StorageType)
	}
}
