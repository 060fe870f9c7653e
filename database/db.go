package database

import (
	"database/sql"
	"log"
	"sync"

	"github.com/plazahq/plaza/config"
	"github.com/plazahq/plaza/internal/cache"
)

// Declare a package-level variable to hold the singleton instance.
// Ensure the instance is not accessible outside the package.
var instance *Datasource
var once sync.Once

type Datasource struct {
	Conn  *sql.DB
	Cache cache.Cache
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := GetDBConnection(configuration)
	if err != nil {
		return nil, err
	}
	return con, nil
}

// GetDBConnection provides a global access point to the instance and initializes it if it's not already.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		con, errConn := ConnectDB(configuration.DataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		newCache, errCache := cache.NewCache()
		if errCache != nil {
			log.Printf("cache initialization failed, continuing without cache: %v", errCache)
		}
		instance = &Datasource{Conn: con, Cache: newCache}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		log.Printf("database Connection error ❌: %v", err)
		return nil, err
	}
	err = createListingTable(db)
	if err != nil {
		return nil, err
	}
	err = createPaymentTable(db)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// createListingTable creates a PostgreSQL table for the Listing struct
func createListingTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id SERIAL PRIMARY KEY,
			listing_id TEXT NOT NULL UNIQUE,
			owner_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			category TEXT NOT NULL,
			duration_days INT NOT NULL,
			status TEXT NOT NULL,
			discount_code TEXT,
			payment_id TEXT,
			contact_name TEXT,
			contact_email TEXT,
			contact_phone TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			published_at TIMESTAMP,
			expiration_date TIMESTAMP,
			meta_data JSONB
		)
	`)
	if err != nil {
		log.Printf("Error creating listings table: %v", err)
		return err
	}
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_listings_status_expiration
		ON listings (status, expiration_date)
	`)
	log.Println(err)
	return err
}

// createPaymentTable creates a PostgreSQL table for the PaymentRecord struct
func createPaymentTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS payments (
			id SERIAL PRIMARY KEY,
			payment_id TEXT NOT NULL UNIQUE,
			listing_id TEXT NOT NULL REFERENCES listings(listing_id),
			external_link_id TEXT,
			payable_url TEXT,
			amount_cents BIGINT NOT NULL,
			is_free BOOLEAN NOT NULL DEFAULT FALSE,
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			completed_at TIMESTAMP,
			meta_data JSONB
		)
	`)
	log.Println(err)
	return err
}
