// Package main 一次性索引同步工具。
// 读取注册表中的参考文档，重建章节索引后退出，
// 任一文档同步失败时退出码为 1。
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"novel-kb-api/internal/application/kb"
	"novel-kb-api/internal/config"
	"novel-kb-api/internal/infrastructure/persistence/postgres"
	"novel-kb-api/internal/wire"
	"novel-kb-api/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	var docs string
	flag.StringVar(&docs, "docs", "", "逗号分隔的文档键，留空则全量同步")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx := context.Background()
	log := logger.FromContext(ctx)

	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "failed to connect database", err)
	}
	defer pgClient.Close()

	if err := pgClient.Migrate(); err != nil {
		logger.Fatal(ctx, "failed to migrate schema", err)
	}

	registry := wire.BuildRegistry(cfg)
	store := postgres.NewSectionRepository(pgClient, cfg.KnowledgeBase.InsertBatchSize)
	indexer, _ := wire.BuildCore(cfg, registry, store, nil)

	var keys []string
	if docs != "" {
		for _, k := range strings.Split(docs, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
	}

	var (
		report *kb.SyncReport
		runErr error
	)
	if len(keys) == 0 {
		report, runErr = indexer.SyncAll(ctx)
	} else {
		report, runErr = indexer.Sync(ctx, keys)
	}
	if runErr != nil {
		logger.Fatal(ctx, "sync aborted", runErr)
	}

	for _, d := range report.Docs {
		if d.OK() {
			fmt.Printf("  ok    %-20s %4d sections\n", d.Key, d.Sections)
		} else {
			fmt.Printf("  FAIL  %-20s %4d sections  %s\n", d.Key, d.Sections, d.Err)
		}
	}
	fmt.Printf("total: %d sections, %d documents, %d failed\n",
		report.Total, len(report.Docs), len(report.Failed()))

	if failed := report.Failed(); len(failed) > 0 {
		log.Error("sync finished with failures", "failed", failed)
		os.Exit(1)
	}
	log.Info("sync finished", "sections", report.Total)
}
