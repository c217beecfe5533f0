package repository

import (
	"context"
	"strings"

	configs "prepcore/config"
	"prepcore/logger"
	"prepcore/mongoconn"
)

// Open performs the one-time backend selection. A usable Mongo URI selects
// the remote store; anything else, including a failed first connection,
// selects the local file store for the remainder of the process. There is
// no runtime retry or reconnection, and no configuration shape ever makes
// Open fail.
func Open(ctx context.Context, cfg configs.Config, log *logger.Logger) Store {
	if isPlaceholderURI(cfg.MongoDBURL) {
		log.Info("no MongoDB URI configured, using local file store", "dataFile", cfg.DataFile)
		return NewFileStore(cfg.DataFile, log)
	}
	client, err := mongoconn.Connect(ctx, cfg.MongoDBURL)
	if err != nil {
		log.Warn("MongoDB unreachable, permanently falling back to local file store",
			"dataFile", cfg.DataFile, "error", err)
		return NewFileStore(cfg.DataFile, log)
	}
	log.Info("connected to MongoDB", "database", cfg.MongoDBName)
	return NewMongoStore(client, cfg.MongoDBName)
}

// isPlaceholderURI reports whether the configured value is empty or one of
// the copy-paste defaults that ship in .env templates.
func isPlaceholderURI(uri string) bool {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return true
	}
	if strings.Contains(uri, "<") || strings.Contains(uri, ">") {
		return true
	}
	lower := strings.ToLower(uri)
	if strings.Contains(lower, "your-mongodb-uri") || strings.Contains(lower, "your_mongodb_uri") {
		return true
	}
	return false
}
