package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"docschat/internal/models"
)

const (
	IngestQueue    = "queue:page-ingestion"
	UpdatesChannel = "ingest_updates"

	popTimeout = 5 * time.Second
	lockTTL    = 10 * time.Minute
)

// redisClient is the subset of *redis.Client the pool uses.
type redisClient interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type pageProcessor interface {
	ProcessURL(ctx context.Context, pageURL string, updateExisting bool) (models.IngestStats, error)
}

// Pool consumes page ingestion jobs from Redis. Failed jobs are reported on
// the status channel and dropped.
type Pool struct {
	redis       redisClient
	processor   pageProcessor
	logger      *zap.Logger
	workerCount int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPool(redisClient redisClient, processor pageProcessor, workerCount int, logger *zap.Logger) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Pool{
		redis:       redisClient,
		processor:   processor,
		logger:      logger,
		workerCount: workerCount,
	}
}

func (p *Pool) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	p.logger.Info("started ingest workers", zap.Int("count", p.workerCount))
}

// Stop interrupts idle workers and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		if ctx.Err() != nil {
			p.logger.Info("ingest worker shutting down", zap.Int("worker", id))
			return
		}

		result, err := p.redis.BLPop(ctx, popTimeout, IngestQueue).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				p.logger.Warn("queue pop failed", zap.Int("worker", id), zap.Error(err))
				time.Sleep(time.Second)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		// Jobs run to completion even during shutdown.
		p.handle(context.WithoutCancel(ctx), id, result[1])
	}
}

func (p *Pool) handle(ctx context.Context, workerID int, payload string) {
	var job models.IngestJob
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		p.logger.Error("failed to parse ingest job", zap.Int("worker", workerID), zap.Error(err))
		return
	}

	lockKey := fmt.Sprintf("ingest_lock:%s", job.ID)
	locked, err := p.redis.SetNX(ctx, lockKey, "1", lockTTL).Result()
	if err != nil {
		p.logger.Error("failed to acquire ingest lock",
			zap.Int("worker", workerID), zap.String("job_id", job.ID.String()), zap.String("url", job.URL), zap.Error(err))
		return
	}
	if !locked {
		p.logger.Debug("ingest job already locked", zap.Int("worker", workerID), zap.String("job_id", job.ID.String()))
		return
	}
	defer p.redis.Del(ctx, lockKey)

	logger := p.logger.With(zap.Int("worker", workerID), zap.String("job_id", job.ID.String()), zap.String("url", job.URL))
	logger.Info("processing ingest job")

	p.publish(ctx, models.IngestEvent{
		Type:     models.IngestEventStatus,
		JobID:    job.ID,
		URL:      job.URL,
		StepName: "Crawling page",
	})

	stats, err := p.processor.ProcessURL(ctx, job.URL, job.UpdateExisting)
	if err != nil {
		logger.Error("ingest job failed", zap.Error(err))
		p.publish(ctx, models.IngestEvent{
			Type:         models.IngestEventError,
			JobID:        job.ID,
			URL:          job.URL,
			ErrorMessage: err.Error(),
		})
		return
	}

	logger.Info("ingest job completed", zap.Int("chunks", stats.Chunks))
	p.publish(ctx, models.IngestEvent{
		Type:  models.IngestEventCompleted,
		JobID: job.ID,
		URL:   job.URL,
		Stats: &stats,
	})
}

func (p *Pool) publish(ctx context.Context, event models.IngestEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := p.redis.Publish(ctx, UpdatesChannel, data).Err(); err != nil {
		p.logger.Warn("failed to publish ingest event", zap.Error(err))
	}
}

// Enqueue appends one ingestion job per URL to the queue in order.
func Enqueue(ctx context.Context, rdb redisClient, urls []string, updateExisting bool) ([]models.IngestJob, error) {
	jobs := make([]models.IngestJob, 0, len(urls))
	for _, u := range urls {
		job := models.IngestJob{
			ID:             uuid.New(),
			URL:            u,
			UpdateExisting: updateExisting,
			EnqueuedAt:     time.Now().UTC(),
		}

		data, err := json.Marshal(job)
		if err != nil {
			return jobs, err
		}
		if err := rdb.RPush(ctx, IngestQueue, data).Err(); err != nil {
			return jobs, fmt.Errorf("failed to enqueue %s: %w", u, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
