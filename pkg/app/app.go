// pkg/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"minivcs/pkg/config"
	"minivcs/pkg/core"
	"minivcs/pkg/logging"
	"minivcs/pkg/meta"
	"minivcs/pkg/repo"
	"minivcs/pkg/storage"
	"minivcs/pkg/storage/cache"
	"minivcs/pkg/storage/disk"
	"minivcs/pkg/storage/s3"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// App is the dependency container. It turns viper settings into a wired
// repository without knowing about CLI commands.
type App struct {
	Repo     *repo.Repository
	Store    storage.Store
	Meta     *meta.Repository // nil unless meta.enabled
	Logger   *zap.Logger
	RootPath string

	closers []func() error
}

// NewApp opens the repository at repo.root.
func NewApp(ctx context.Context) (*App, error) {
	// check first so a failed command leaves no .vcs behind
	root, err := rootPath()
	if err != nil {
		return nil, err
	}
	if ok, err := repo.Initialized(root); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("%w: no repository in %s (run 'vcs init')", repo.ErrUninitialized, root)
	}

	a, opts, err := assemble(ctx)
	if err != nil {
		return nil, err
	}
	r, err := repo.Open(ctx, a.RootPath, opts)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Repo = r
	return a, nil
}

// InitRepo creates a repository at repo.root and returns its genesis commit.
func InitRepo(ctx context.Context) (*App, *core.Commit, error) {
	a, opts, err := assemble(ctx)
	if err != nil {
		return nil, nil, err
	}
	r, genesis, err := repo.Init(ctx, a.RootPath, opts)
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	a.Repo = r
	return a, genesis, nil
}

// Close releases the cache and database connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}

func assemble(ctx context.Context) (*App, repo.Options, error) {
	log, err := logging.New(viper.GetString("log.level"))
	if err != nil {
		return nil, repo.Options{}, err
	}

	root, err := rootPath()
	if err != nil {
		return nil, repo.Options{}, err
	}

	a := &App{Logger: log, RootPath: root}

	store, err := initStore(ctx, root)
	if err != nil {
		return nil, repo.Options{}, fmt.Errorf("failed to init storage: %w", err)
	}

	if url := viper.GetString("cache.redis_url"); url != "" {
		cached, err := cache.NewCachedStore(store, cache.Config{
			RedisURL:  url,
			TTL:       viper.GetDuration("cache.ttl"),
			Namespace: storeNamespace(root),
			Logger:    log,
		})
		if err != nil {
			// the cache is an accelerator only
			log.Warn("redis cache disabled", zap.Error(err))
		} else {
			store = cached
			a.closers = append(a.closers, cached.Close)
		}
	}
	a.Store = store

	opts := repo.Options{Store: store, Logger: log}

	if viper.GetBool("meta.enabled") {
		db, err := initMeta(ctx, root)
		if err != nil {
			a.Close()
			return nil, repo.Options{}, fmt.Errorf("failed to init metadata index: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		a.Meta = meta.NewRepository(db)
		opts.Indexer = a.Meta
	}

	return a, opts, nil
}

func rootPath() (string, error) {
	root, err := filepath.Abs(viper.GetString("repo.root"))
	if err != nil {
		return "", fmt.Errorf("invalid repository root: %w", err)
	}
	return root, nil
}

// initStore picks the object store backend from storage.type.
func initStore(ctx context.Context, root string) (storage.Store, error) {
	switch t := viper.GetString("storage.type"); t {
	case "disk", "":
		return disk.NewAdapter(repo.Layout{Root: root}.CommitsDir())
	case "s3":
		return s3.NewAdapter(ctx, s3.Config{
			Endpoint:        viper.GetString("storage.s3.endpoint"),
			Region:          viper.GetString("storage.s3.region"),
			Bucket:          viper.GetString("storage.s3.bucket"),
			Prefix:          viper.GetString("storage.s3.prefix"),
			AccessKeyID:     viper.GetString("storage.s3.access_key"),
			SecretAccessKey: viper.GetString("storage.s3.secret_key"),
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %q", t)
	}
}

// storeNamespace identifies the backend behind the cache.
func storeNamespace(root string) string {
	if viper.GetString("storage.type") == "s3" {
		return "s3:" + viper.GetString("storage.s3.bucket") + "/" + viper.GetString("storage.s3.prefix")
	}
	return "disk:" + repo.Layout{Root: root}.CommitsDir()
}

// initMeta opens the SQL commit index. An empty sqlite DSN lands in
// .vcs/meta.db.
func initMeta(ctx context.Context, root string) (*meta.DB, error) {
	driver := viper.GetString("meta.driver")
	dsn := viper.GetString("meta.dsn")
	if dsn == "" && (driver == meta.DriverSQLite || driver == "") {
		dsn = filepath.Join(root, config.RepoDirName, "meta.db")
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, err
		}
	}
	return meta.Open(ctx, meta.Config{
		Driver:  driver,
		DSN:     dsn,
		Verbose: viper.GetString("log.level") == "debug",
	})
}
