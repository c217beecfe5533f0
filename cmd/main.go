package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"prepcore/cache"
	configs "prepcore/config"
	"prepcore/logger"
	"prepcore/natsclient"
	"prepcore/repository"
	"prepcore/service"
)

func main() {
	configValues := configs.LoadConfig()

	logInstance, err := logger.New(configValues.Environment)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logInstance.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storeInstance := repository.Open(ctx, configValues, logInstance)
	defer storeInstance.Close(context.Background())

	var cacheInstance cache.Cache
	if configValues.RedisURL != "" {
		cacheInstance = cache.NewRedisCache(configValues.RedisURL, "", 0, logInstance)
	}

	var natsInstance *natsclient.NatsClient
	if configValues.NATSURL != "" {
		natsInstance, err = natsclient.NewNatsClient(configValues.NATSURL)
		if err != nil {
			logInstance.Warn("NATS unreachable, continuing without event publishing", "error", err)
		} else {
			defer natsInstance.Close()
		}
	}

	serviceInstance := service.New(storeInstance, cacheInstance, natsInstance, logInstance)
	serviceInstance.StartRankSync()
	defer serviceInstance.Stop()

	logInstance.Info("persistence engine running", "environment", configValues.Environment)
	<-ctx.Done()
	logInstance.Info("shutting down")
}
