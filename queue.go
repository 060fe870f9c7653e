/*
Copyright 2025 Plaza Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package plaza

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/plazahq/plaza/config"
	redis_db "github.com/plazahq/plaza/internal/redis-db"
)

// Queue represents a queue for handling various tasks.
type Queue struct {
	Client    *asynq.Client
	Inspector *asynq.Inspector
}

// ReconcilePayload is the task payload for a payment reconciliation check.
type ReconcilePayload struct {
	PaymentID string `json:"payment_id"`
}

// NewQueue initializes a new Queue instance with the provided configuration.
func NewQueue(conf *config.Configuration) *Queue {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		log.Fatalf("Error parsing Redis URL: %v", err)
	}

	queueOptions := asynq.RedisClientOpt{Addr: redisOption.Addr, Password: redisOption.Password, DB: redisOption.DB, TLSConfig: redisOption.TLSConfig}
	client := asynq.NewClient(queueOptions)
	inspector := asynq.NewInspector(queueOptions)
	return &Queue{
		Client:    client,
		Inspector: inspector,
	}
}

// EnqueueReconcilePayment enqueues a delayed reconciliation check for a
// payment whose provider answer was not terminal. The task ID is the payment
// ID so repeated enqueues of the same payment collapse into one task.
func (q *Queue) EnqueueReconcilePayment(ctx context.Context, paymentID string, delay time.Duration) error {
	cfg, err := config.Fetch()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(ReconcilePayload{PaymentID: paymentID})
	if err != nil {
		return err
	}

	taskOptions := []asynq.Option{
		asynq.TaskID(paymentID),
		asynq.Queue(cfg.Queue.ReconcileQueue),
		asynq.ProcessIn(delay),
		asynq.MaxRetry(cfg.Lifecycle.ReconcileMaxRetry),
	}
	task := asynq.NewTask(cfg.Queue.ReconcileQueue, payload, taskOptions...)
	info, err := q.Client.EnqueueContext(ctx, task)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		log.Println(err, info)
		return err
	}
	log.Printf(" [*] Successfully enqueued payment reconciliation: %+v", paymentID)
	return nil
}

// GetReconcileTask retrieves a pending reconciliation task by payment ID.
func (q *Queue) GetReconcileTask(paymentID string) (*ReconcilePayload, error) {
	cfg, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	task, err := q.Inspector.GetTaskInfo(cfg.Queue.ReconcileQueue, paymentID)
	if err != nil || task == nil {
		return nil, nil
	}
	var payload ReconcilePayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
