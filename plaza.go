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
	"embed"

	"github.com/redis/go-redis/v9"

	"github.com/plazahq/plaza/config"
	"github.com/plazahq/plaza/database"
	"github.com/plazahq/plaza/discount"
	"github.com/plazahq/plaza/gateway"
	redis_db "github.com/plazahq/plaza/internal/redis-db"
)

// Plaza represents the main struct for the Plaza application.
type Plaza struct {
	queue      *Queue
	redis      redis.UniversalClient
	datasource database.IDataSource
	gateway    *gateway.Adapter
	discounts  *discount.Engine
}

//go:embed sql/*.sql
var SQLFiles embed.FS

// NewPlaza initializes a new instance of Plaza with the provided database datasource.
// It fetches the configuration and initializes the Redis client, task queue,
// payment gateway adapter, and discount engine.
func NewPlaza(db database.IDataSource) (*Plaza, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis_db.NewRedisClient([]string{configuration.Redis.Dns}, configuration.Redis.SkipTLSVerify)
	if err != nil {
		return nil, err
	}
	newQueue := NewQueue(configuration)

	newPlaza := &Plaza{
		datasource: db,
		queue:      newQueue,
		redis:      redisClient.Client(),
		gateway:    gateway.NewAdapter(),
		discounts:  discount.NewEngine(),
	}
	return newPlaza, nil
}
