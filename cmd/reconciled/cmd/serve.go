package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"trade-reconcile-service/internal/resultcache"
	"trade-reconcile-service/internal/server"
	"trade-reconcile-service/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reconciliation HTTP server",
	Long: `Starts the HTTP server exposing the compare endpoint, the
reconciliation tools, the split check, and export downloads.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", ":8080", "listen address")
	serveCmd.Flags().String("cache-backend", "memory", "result cache backend (memory or redis)")
	serveCmd.Flags().Duration("cache-ttl", 60*time.Minute, "result cache entry lifetime")
	serveCmd.Flags().Int("cache-max-items", 40, "memory cache item limit")
	serveCmd.Flags().String("redis-addr", "localhost:6379", "redis address")
	serveCmd.Flags().String("redis-password", "", "redis password")
	serveCmd.Flags().Int("redis-db", 0, "redis database number")

	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
	viper.BindPFlag("cache.backend", serveCmd.Flags().Lookup("cache-backend"))
	viper.BindPFlag("cache.ttl", serveCmd.Flags().Lookup("cache-ttl"))
	viper.BindPFlag("cache.max_items", serveCmd.Flags().Lookup("cache-max-items"))
	viper.BindPFlag("cache.redis_addr", serveCmd.Flags().Lookup("redis-addr"))
	viper.BindPFlag("cache.redis_password", serveCmd.Flags().Lookup("redis-password"))
	viper.BindPFlag("cache.redis_db", serveCmd.Flags().Lookup("redis-db"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	log, err := logger.New(&logger.Config{
		Level:  viper.GetString("log.level"),
		Format: viper.GetString("log.format"),
	})
	if err != nil {
		return err
	}
	logger.SetGlobal(log)
	log = log.WithComponent("serve")

	cache, err := resultcache.New(resultcache.Config{
		Backend:       viper.GetString("cache.backend"),
		TTL:           viper.GetDuration("cache.ttl"),
		MaxItems:      viper.GetInt("cache.max_items"),
		RedisAddr:     viper.GetString("cache.redis_addr"),
		RedisPassword: viper.GetString("cache.redis_password"),
		RedisDB:       viper.GetInt("cache.redis_db"),
	})
	if err != nil {
		return err
	}
	defer cache.Close()

	srv := &http.Server{
		Addr:              viper.GetString("listen"),
		Handler:           server.New(log, cache).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.WithField("signal", sig.String()).Info("shutting down")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
