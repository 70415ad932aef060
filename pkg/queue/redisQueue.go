package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	defaultQueueTimeout = 5 * time.Second
	defaultMoveInterval = 10 * time.Second
)

// RedisQueue implements Queue using a Redis list for ready tasks and a sorted
// set (scored by due time) for delayed ones. A background mover promotes due
// delayed tasks to the main list; consumers take with BRPOPLPUSH through a
// processing list so a crashed consumer leaves the task recoverable.
type RedisQueue struct {
	client          *redis.Client
	mainQueue       string
	delayedQueue    string
	processingQueue string
	config          *RedisQueueConfig
	mu              sync.RWMutex
	stopChan        chan struct{}
	wg              sync.WaitGroup
}

// RedisQueueConfig contains configuration for RedisQueue
type RedisQueueConfig struct {
	MainQueue       string
	DelayedQueue    string
	ProcessingQueue string

	QueueTimeout time.Duration
	MoveInterval time.Duration
}

// DefaultRedisQueueConfig returns default configuration
func DefaultRedisQueueConfig() *RedisQueueConfig {
	return &RedisQueueConfig{
		MainQueue:       "alumni_notify:tasks",
		DelayedQueue:    "alumni_notify:tasks:delayed",
		ProcessingQueue: "alumni_notify:tasks:processing",
		QueueTimeout:    defaultQueueTimeout,
		MoveInterval:    defaultMoveInterval,
	}
}

// NewRedisQueue creates a new RedisQueue on top of an existing client. The
// queue takes ownership of the client; Close closes it.
func NewRedisQueue(client *redis.Client, cfg *RedisQueueConfig) (*RedisQueue, error) {
	if cfg == nil {
		cfg = DefaultRedisQueueConfig()
	}
	if cfg.QueueTimeout == 0 {
		cfg.QueueTimeout = defaultQueueTimeout
	}
	if cfg.MoveInterval == 0 {
		cfg.MoveInterval = defaultMoveInterval
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	q := &RedisQueue{
		client:          client,
		mainQueue:       cfg.MainQueue,
		delayedQueue:    cfg.DelayedQueue,
		processingQueue: cfg.ProcessingQueue,
		config:          cfg,
		stopChan:        make(chan struct{}),
	}

	log.Printf("RedisQueue initialized: main=%s, delayed=%s", cfg.MainQueue, cfg.DelayedQueue)

	return q, nil
}

// Publish sends a task to the queue
func (r *RedisQueue) Publish(ctx context.Context, task *Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if task.ID == "" || task.Type == "" {
		return fmt.Errorf("invalid task: id and type are required")
	}

	taskData, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %v", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Use the sorted set for delayed tasks
	if !task.ExecuteAt.IsZero() && task.ExecuteAt.After(time.Now()) {
		score := float64(task.ExecuteAt.UnixNano()) / 1e9
		_, err = r.client.ZAdd(ctx, r.delayedQueue, &redis.Z{
			Score:  score,
			Member: taskData,
		}).Result()
		if err != nil {
			return fmt.Errorf("failed to publish delayed task: %v", err)
		}
		log.Printf("Task %s scheduled for execution at %s", task.ID, task.ExecuteAt.Format(time.RFC3339))
	} else {
		_, err = r.client.LPush(ctx, r.mainQueue, taskData).Result()
		if err != nil {
			return fmt.Errorf("failed to publish immediate task: %v", err)
		}
		log.Printf("Task %s published to main queue", task.ID)
	}

	return nil
}

// Subscribe starts consuming tasks from the queue
func (r *RedisQueue) Subscribe(ctx context.Context, handler func(*Task) error) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	r.wg.Add(2)
	go r.processDelayedTasks(ctx)
	go r.processMainQueue(ctx, handler)

	log.Println("RedisQueue subscriber started")
	return nil
}

// processMainQueue processes tasks from the main queue
func (r *RedisQueue) processMainQueue(ctx context.Context, handler func(*Task) error) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			log.Println("Main queue processor stopped by context")
			return
		case <-r.stopChan:
			log.Println("Main queue processor stopped")
			return
		default:
			if err := r.processOne(ctx, handler); err != nil {
				log.Printf("Error processing task: %v", err)
				time.Sleep(time.Second) // Backoff on error
			}
		}
	}
}

// processOne takes one task from the main queue through the processing list
// and hands it to the handler. A handler error is logged, not retried here:
// the database is the source of truth and the scheduler re-discovers rows a
// task failed to advance.
func (r *RedisQueue) processOne(ctx context.Context, handler func(*Task) error) error {
	taskData, err := r.client.BRPopLPush(ctx, r.mainQueue, r.processingQueue, r.config.QueueTimeout).Result()
	if err == redis.Nil {
		return nil // Timeout, no tasks
	}
	if err != nil {
		return fmt.Errorf("failed to move task to processing queue: %v", err)
	}

	var task Task
	if err := json.Unmarshal([]byte(taskData), &task); err != nil {
		log.Printf("Discarding malformed task: %v", err)
	} else {
		task.Attempts++
		if err := handler(&task); err != nil {
			log.Printf("Task %s (%s) failed: %v", task.ID, task.Type, err)
		} else {
			log.Printf("Task %s completed successfully", task.ID)
		}
	}

	// Remove from processing queue regardless of outcome
	if err := r.client.LRem(ctx, r.processingQueue, 1, taskData).Err(); err != nil {
		log.Printf("Failed to remove task from processing queue: %v", err)
	}

	return nil
}

// processDelayedTasks moves ready delayed tasks to main queue
func (r *RedisQueue) processDelayedTasks(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.MoveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Delayed tasks processor stopped by context")
			return
		case <-r.stopChan:
			log.Println("Delayed tasks processor stopped")
			return
		case <-ticker.C:
			if err := r.moveReadyDelayedTasks(ctx); err != nil {
				log.Printf("Error moving delayed tasks: %v", err)
			}
		}
	}
}

// moveReadyDelayedTasks promotes every delayed task whose due time has passed.
func (r *RedisQueue) moveReadyDelayedTasks(ctx context.Context) error {
	now := float64(time.Now().UnixNano()) / 1e9

	tasks, err := r.client.ZRangeByScore(ctx, r.delayedQueue, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%f", now),
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to read delayed tasks: %v", err)
	}

	for _, taskData := range tasks {
		pipe := r.client.TxPipeline()
		pipe.ZRem(ctx, r.delayedQueue, taskData)
		pipe.LPush(ctx, r.mainQueue, taskData)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("failed to promote delayed task: %v", err)
		}
	}

	if len(tasks) > 0 {
		log.Printf("Promoted %d delayed tasks to main queue", len(tasks))
	}

	return nil
}

// Close stops the background processors and closes the client
func (r *RedisQueue) Close() error {
	close(r.stopChan)
	r.wg.Wait()
	return r.client.Close()
}
