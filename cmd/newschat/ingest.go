package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/newschat/config"
	"github.com/mohammad-safakhou/newschat/internal/embedding"
	"github.com/mohammad-safakhou/newschat/internal/ingest"
	"github.com/mohammad-safakhou/newschat/internal/retrieval"
	"github.com/mohammad-safakhou/newschat/internal/session"
)

func ingestCMD() *cobra.Command {
	var cfgPath string
	var cronSpec string
	var cmd = &cobra.Command{
		Use:   "ingest",
		Short: "Fetch configured feeds and upsert passages into the vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			if err := cfg.Embedding.Validate(); err != nil {
				return err
			}
			if err := cfg.Qdrant.Validate(); err != nil {
				return err
			}

			embedder := embedding.NewClient(cfg.Embedding.URL, cfg.Embedding.Timeout)
			index := retrieval.NewClient(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, cfg.Qdrant.Timeout)
			ing := ingest.New(cfg.Ingest, cfg.Qdrant.VectorSize, embedder, index)

			ctx := context.Background()
			if cronSpec == "" {
				return ing.Run(ctx)
			}

			// scheduled mode: take the cross-replica lock through redis
			rdb, err := session.Conn(ctx, cfg.Session.Addr(), cfg.Session.Pass, cfg.Session.DB, cfg.Session.Timeout)
			if err != nil {
				return err
			}
			defer rdb.Close()

			sched := &ingest.Scheduler{Ingestor: ing, CronSpec: cronSpec, Rdb: rdb, Stop: make(chan struct{})}
			if err := sched.Start(); err != nil {
				return err
			}
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig
			close(sched.Stop)
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	cmd.Flags().StringVar(&cronSpec, "cron", "", "cron schedule; empty runs a single pass")

	return cmd
}
