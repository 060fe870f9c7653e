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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5002"

	// Lifecycle defaults. A listing starts warning the owner with seven days
	// left and is purged thirty days after it expires.
	DefaultExpiringSoonDays = 7
	DefaultPurgeGraceDays   = 30
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"PLAZA_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"PLAZA_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"PLAZA_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"PLAZA_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"PLAZA_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"PLAZA_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"PLAZA_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"PLAZA_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"PLAZA_REDIS_SKIP_TLS_VERIFY"`
}

// PaymentGatewayConfig points at the external payment provider. VerifyTimeout
// bounds a single verification call; a timed-out verification is absorbed as
// acceptable rather than failing the publish flow.
type PaymentGatewayConfig struct {
	Url              string `json:"url" envconfig:"PLAZA_PAYMENT_GATEWAY_URL"`
	ApiKey           string `json:"api_key" envconfig:"PLAZA_PAYMENT_GATEWAY_API_KEY"`
	VerifyTimeoutSec int    `json:"verify_timeout_sec" envconfig:"PLAZA_PAYMENT_GATEWAY_VERIFY_TIMEOUT_SEC"`
	RedirectUrl      string `json:"redirect_url" envconfig:"PLAZA_PAYMENT_GATEWAY_REDIRECT_URL"`
}

// DiscountConfig holds the remote discount authority and the universal
// override code. The override code is resolved locally and never sent to the
// authority.
type DiscountConfig struct {
	ServiceUrl    string `json:"service_url" envconfig:"PLAZA_DISCOUNT_SERVICE_URL"`
	UniversalCode string `json:"universal_code" envconfig:"PLAZA_DISCOUNT_UNIVERSAL_CODE"`
}

type LifecycleConfig struct {
	ExpiringSoonDays  int `json:"expiring_soon_days" envconfig:"PLAZA_LIFECYCLE_EXPIRING_SOON_DAYS"`
	PurgeGraceDays    int `json:"purge_grace_days" envconfig:"PLAZA_LIFECYCLE_PURGE_GRACE_DAYS"`
	SweepIntervalSec  int `json:"sweep_interval_sec" envconfig:"PLAZA_LIFECYCLE_SWEEP_INTERVAL_SEC"`
	SweepBatchSize    int `json:"sweep_batch_size" envconfig:"PLAZA_LIFECYCLE_SWEEP_BATCH_SIZE"`
	ReconcileMaxRetry int `json:"reconcile_max_retry" envconfig:"PLAZA_LIFECYCLE_RECONCILE_MAX_RETRY"`
}

type QueueConfig struct {
	WebhookQueue   string `json:"webhook_queue" envconfig:"PLAZA_QUEUE_WEBHOOK"`
	ReconcileQueue string `json:"reconcile_queue" envconfig:"PLAZA_QUEUE_RECONCILE"`
	MonitoringPort string `json:"monitoring_port" envconfig:"PLAZA_QUEUE_MONITORING_PORT"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"PLAZA_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"PLAZA_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"PLAZA_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack   SlackWebhook `json:"slack"`
	Webhook struct {
		Url     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	} `json:"webhook"`
}

type Configuration struct {
	ProjectName     string               `json:"project_name" envconfig:"PLAZA_PROJECT_NAME"`
	EnableTelemetry bool                 `json:"enable_telemetry" envconfig:"PLAZA_ENABLE_TELEMETRY"`
	Server          ServerConfig         `json:"server"`
	DataSource      DataSourceConfig     `json:"data_source"`
	Redis           RedisConfig          `json:"redis"`
	PaymentGateway  PaymentGatewayConfig `json:"payment_gateway"`
	Discount        DiscountConfig       `json:"discount"`
	Lifecycle       LifecycleConfig      `json:"lifecycle"`
	Queue           QueueConfig          `json:"queue"`
	Notification    Notification         `json:"notification"`
	RateLimit       RateLimitConfig      `json:"rate_limit"`
}

func (cnf *Configuration) VerifyTimeout() time.Duration {
	return time.Duration(cnf.PaymentGateway.VerifyTimeoutSec) * time.Second
}

func (cnf *Configuration) SweepInterval() time.Duration {
	return time.Duration(cnf.Lifecycle.SweepIntervalSec) * time.Second
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("plaza", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called plaza.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Plaza Server"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)
	cnf.PaymentGateway.Url = strings.TrimSpace(cnf.PaymentGateway.Url)
	cnf.Discount.ServiceUrl = strings.TrimSpace(cnf.Discount.ServiceUrl)

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.PaymentGateway.VerifyTimeoutSec <= 0 {
		cnf.PaymentGateway.VerifyTimeoutSec = 10
	}

	if cnf.Discount.UniversalCode == "" {
		cnf.Discount.UniversalCode = "COMMUNITYFREE"
	}

	if cnf.Lifecycle.ExpiringSoonDays <= 0 {
		cnf.Lifecycle.ExpiringSoonDays = DefaultExpiringSoonDays
	}
	if cnf.Lifecycle.PurgeGraceDays <= 0 {
		cnf.Lifecycle.PurgeGraceDays = DefaultPurgeGraceDays
	}
	if cnf.Lifecycle.SweepIntervalSec <= 0 {
		cnf.Lifecycle.SweepIntervalSec = 3600 // hourly sweep
	}
	if cnf.Lifecycle.SweepBatchSize <= 0 {
		cnf.Lifecycle.SweepBatchSize = 500
	}
	if cnf.Lifecycle.ReconcileMaxRetry <= 0 {
		cnf.Lifecycle.ReconcileMaxRetry = 10
	}

	if cnf.Queue.WebhookQueue == "" {
		cnf.Queue.WebhookQueue = "new:webhook"
	}
	if cnf.Queue.ReconcileQueue == "" {
		cnf.Queue.ReconcileQueue = "new:reconcile"
	}
	if cnf.Queue.MonitoringPort == "" {
		cnf.Queue.MonitoringPort = "5003"
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	if mockConfig.Discount.UniversalCode == "" {
		mockConfig.Discount.UniversalCode = "COMMUNITYFREE"
	}
	if mockConfig.Lifecycle.ExpiringSoonDays == 0 {
		mockConfig.Lifecycle.ExpiringSoonDays = DefaultExpiringSoonDays
	}
	if mockConfig.Lifecycle.PurgeGraceDays == 0 {
		mockConfig.Lifecycle.PurgeGraceDays = DefaultPurgeGraceDays
	}
	if mockConfig.PaymentGateway.VerifyTimeoutSec == 0 {
		mockConfig.PaymentGateway.VerifyTimeoutSec = 10
	}
	if mockConfig.Lifecycle.SweepBatchSize == 0 {
		mockConfig.Lifecycle.SweepBatchSize = 500
	}
	if mockConfig.Lifecycle.ReconcileMaxRetry == 0 {
		mockConfig.Lifecycle.ReconcileMaxRetry = 10
	}
	if mockConfig.Queue.WebhookQueue == "" {
		mockConfig.Queue.WebhookQueue = "new:webhook"
	}
	if mockConfig.Queue.ReconcileQueue == "" {
		mockConfig.Queue.ReconcileQueue = "new:reconcile"
	}
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
