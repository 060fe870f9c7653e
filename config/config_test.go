package config

import (
	"encoding/json"
	"os"
	"testing"
)

func TestValidateAndAddDefaults(t *testing.T) {
	cnf := Configuration{
		ProjectName: "",
		DataSource: DataSourceConfig{
			Dns: "",
		},
		Redis: RedisConfig{
			Dns: "localhost:6379",
		},
	}

	err := cnf.validateAndAddDefaults()
	if err == nil || err.Error() != "data source DNS is required" {
		t.Errorf("Expected data source DNS required error, got %v", err)
	}

	cnf = Configuration{
		ProjectName: "",
		DataSource: DataSourceConfig{
			Dns: "postgres://localhost:5432",
		},
		Redis: RedisConfig{
			Dns: "",
		},
	}

	err = cnf.validateAndAddDefaults()
	if err == nil || err.Error() != "redis DNS is required" {
		t.Errorf("Expected redis DNS required error, got %v", err)
	}

	cnf = Configuration{
		ProjectName: "Test Project",
		DataSource: DataSourceConfig{
			Dns: "some-dns",
		},
		Redis: RedisConfig{
			Dns: "localhost:6379",
		},
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	if cnf.Server.Port != DEFAULT_PORT {
		t.Errorf("Expected default port %s, got %s", DEFAULT_PORT, cnf.Server.Port)
	}
	if cnf.Lifecycle.ExpiringSoonDays != DefaultExpiringSoonDays {
		t.Errorf("Expected default expiring-soon days %d, got %d", DefaultExpiringSoonDays, cnf.Lifecycle.ExpiringSoonDays)
	}
	if cnf.Lifecycle.PurgeGraceDays != DefaultPurgeGraceDays {
		t.Errorf("Expected default purge grace days %d, got %d", DefaultPurgeGraceDays, cnf.Lifecycle.PurgeGraceDays)
	}
	if cnf.Discount.UniversalCode != "COMMUNITYFREE" {
		t.Errorf("Expected default universal code, got %s", cnf.Discount.UniversalCode)
	}
	if cnf.PaymentGateway.VerifyTimeoutSec != 10 {
		t.Errorf("Expected default verify timeout of 10s, got %d", cnf.PaymentGateway.VerifyTimeoutSec)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "plaza.json")
	if err != nil {
		t.Fatalf("Unable to create temporary file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	sampleConfig := Configuration{
		ProjectName: "Temp Project",
		DataSource: DataSourceConfig{
			Dns: "temp-dns",
		},
		Redis: RedisConfig{
			Dns: "temp-redis",
		},
	}
	if err := json.NewEncoder(tmpFile).Encode(sampleConfig); err != nil {
		t.Fatalf("Unable to write to temporary file: %v", err)
	}
	tmpFile.Close()

	// Environment variables override file values
	os.Setenv("PLAZA_PROJECT_NAME", "Env Project")
	defer os.Unsetenv("PLAZA_PROJECT_NAME")

	if err := loadConfigFromFile(tmpFile.Name()); err != nil {
		t.Fatalf("loadConfigFromFile returned error: %v", err)
	}

	cnf, err := Fetch()
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if cnf.ProjectName != "Env Project" {
		t.Errorf("Expected env override of project name, got %s", cnf.ProjectName)
	}
	if cnf.DataSource.Dns != "temp-dns" {
		t.Errorf("Expected file data source dns, got %s", cnf.DataSource.Dns)
	}
}
