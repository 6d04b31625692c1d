package testdb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDBConfig holds test database configuration
type TestDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

// GetTestDBConfig returns test database configuration from environment or defaults
func GetTestDBConfig() TestDBConfig {
	return TestDBConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnv("TEST_DB_PORT", "5434"),
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		Database: getEnv("TEST_DB_NAME", "payin_service_test"),
	}
}

// SetupTestDB creates a payment-DB connection pool and runs migrations
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	cfg := GetTestDBConfig()

	connString := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		t.Fatalf("Failed to parse database config: %v", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("Failed to ping database: %v", err)
	}

	if err := runMigrations(pool); err != nil {
		pool.Close()
		t.Fatalf("Failed to run migrations: %v", err)
	}

	CleanDatabase(t, pool)

	t.Logf("Test database setup complete: %s", cfg.Database)

	return pool
}

// CleanDatabase truncates all tables for a fresh test state
func CleanDatabase(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()

	tables := []string{
		"pgp_refunds", "refunds",
		"pgp_payment_charges", "payment_charges",
		"payment_intent_adjustment_history",
		"pgp_payment_intents", "payment_intents",
		"cart_payments",
		"pgp_payment_methods", "payment_methods",
		"pgp_customers", "payers",
		"stripe_charges", "consumer_charges",
		"stripe_cards", "stripe_customers",
	}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			t.Logf("Warning: Failed to truncate table %s: %v", table, err)
		}
	}
}

// TeardownTestDB closes the database connection pool
func TeardownTestDB(t *testing.T, pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
		t.Log("Test database connection closed")
	}
}

// runMigrations creates the payment-DB schema used by the repositories
func runMigrations(pool *pgxpool.Pool) error {
	ctx := context.Background()

	migrationSQL := `
-- Cart payments
CREATE TABLE IF NOT EXISTS cart_payments (
    id UUID PRIMARY KEY,
    amount BIGINT NOT NULL,
    payer_id UUID NOT NULL,
    payment_method_id UUID NOT NULL,
    delay_capture BOOLEAN NOT NULL DEFAULT FALSE,
    reference_id VARCHAR(255) NOT NULL,
    reference_type VARCHAR(255) NOT NULL,
    client_description TEXT,
    payer_statement_description VARCHAR(255),
    payout_account_id VARCHAR(255),
    application_fee_amount BIGINT,
    country VARCHAR(2) NOT NULL,
    currency VARCHAR(3) NOT NULL,
    capture_after TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at TIMESTAMPTZ,
    CONSTRAINT cart_payments_amount_non_negative CHECK (amount >= 0)
);

CREATE INDEX IF NOT EXISTS idx_cart_payments_payer_id ON cart_payments(payer_id);
CREATE INDEX IF NOT EXISTS idx_cart_payments_created_at ON cart_payments(created_at DESC);

-- Payment intents
CREATE TABLE IF NOT EXISTS payment_intents (
    id UUID PRIMARY KEY,
    cart_payment_id UUID NOT NULL REFERENCES cart_payments(id),
    idempotency_key VARCHAR(255) NOT NULL UNIQUE,
    amount_initiated BIGINT NOT NULL,
    amount BIGINT NOT NULL,
    application_fee_amount BIGINT,
    capture_method VARCHAR(20) NOT NULL,
    country VARCHAR(2) NOT NULL,
    currency VARCHAR(3) NOT NULL,
    status VARCHAR(20) NOT NULL,
    statement_descriptor VARCHAR(255),
    payment_method_id UUID NOT NULL,
    legacy_consumer_charge_id BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    captured_at TIMESTAMPTZ,
    cancelled_at TIMESTAMPTZ,
    capture_after TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_payment_intents_cart_payment_id ON payment_intents(cart_payment_id);
CREATE INDEX IF NOT EXISTS idx_payment_intents_status ON payment_intents(status);

-- Gateway mirrors of payment intents
CREATE TABLE IF NOT EXISTS pgp_payment_intents (
    id UUID PRIMARY KEY,
    payment_intent_id UUID NOT NULL REFERENCES payment_intents(id),
    idempotency_key VARCHAR(255) NOT NULL,
    pgp_code VARCHAR(20) NOT NULL,
    resource_id VARCHAR(255) NOT NULL,
    status VARCHAR(20) NOT NULL,
    charge_resource_id VARCHAR(255),
    payment_method_resource_id VARCHAR(255) NOT NULL,
    customer_resource_id VARCHAR(255),
    currency VARCHAR(3) NOT NULL,
    amount BIGINT NOT NULL,
    amount_capturable BIGINT,
    amount_received BIGINT,
    application_fee_amount BIGINT,
    payout_account_id VARCHAR(255),
    capture_method VARCHAR(20) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    captured_at TIMESTAMPTZ,
    cancelled_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_pgp_payment_intents_payment_intent_id ON pgp_payment_intents(payment_intent_id);
CREATE INDEX IF NOT EXISTS idx_pgp_payment_intents_resource_id ON pgp_payment_intents(resource_id);

-- Append-only amount adjustment history
CREATE TABLE IF NOT EXISTS payment_intent_adjustment_history (
    id UUID PRIMARY KEY,
    payer_id UUID NOT NULL,
    payment_intent_id UUID NOT NULL REFERENCES payment_intents(id),
    amount BIGINT NOT NULL,
    amount_original BIGINT NOT NULL,
    amount_delta BIGINT NOT NULL,
    currency VARCHAR(3) NOT NULL,
    idempotency_key VARCHAR(255) NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_adjustment_history_payment_intent_id
    ON payment_intent_adjustment_history(payment_intent_id);

-- Captured charges
CREATE TABLE IF NOT EXISTS payment_charges (
    id UUID PRIMARY KEY,
    payment_intent_id UUID NOT NULL REFERENCES payment_intents(id),
    pgp_code VARCHAR(20) NOT NULL,
    idempotency_key VARCHAR(255) NOT NULL,
    status VARCHAR(20) NOT NULL,
    currency VARCHAR(3) NOT NULL,
    amount BIGINT NOT NULL,
    amount_refunded BIGINT NOT NULL DEFAULT 0,
    application_fee_amount BIGINT,
    payout_account_id VARCHAR(255),
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    captured_at TIMESTAMPTZ,
    cancelled_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_payment_charges_payment_intent_id ON payment_charges(payment_intent_id);

CREATE TABLE IF NOT EXISTS pgp_payment_charges (
    id UUID PRIMARY KEY,
    payment_charge_id UUID NOT NULL REFERENCES payment_charges(id),
    pgp_code VARCHAR(20) NOT NULL,
    idempotency_key VARCHAR(255) NOT NULL,
    status VARCHAR(20) NOT NULL,
    currency VARCHAR(3) NOT NULL,
    amount BIGINT NOT NULL,
    amount_refunded BIGINT NOT NULL DEFAULT 0,
    application_fee_amount BIGINT,
    payout_account_id VARCHAR(255),
    resource_id VARCHAR(255) NOT NULL,
    intent_resource_id VARCHAR(255) NOT NULL,
    payment_method_resource_id VARCHAR(255),
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    captured_at TIMESTAMPTZ,
    cancelled_at TIMESTAMPTZ
);

-- Refunds
CREATE TABLE IF NOT EXISTS refunds (
    id UUID PRIMARY KEY,
    payment_intent_id UUID NOT NULL REFERENCES payment_intents(id),
    idempotency_key VARCHAR(255) NOT NULL UNIQUE,
    status VARCHAR(20) NOT NULL,
    amount BIGINT NOT NULL,
    reason VARCHAR(255),
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_refunds_payment_intent_id ON refunds(payment_intent_id);

CREATE TABLE IF NOT EXISTS pgp_refunds (
    id UUID PRIMARY KEY,
    refund_id UUID NOT NULL REFERENCES refunds(id),
    idempotency_key VARCHAR(255) NOT NULL,
    status VARCHAR(20) NOT NULL,
    pgp_code VARCHAR(20) NOT NULL,
    pgp_resource_id VARCHAR(255),
    amount BIGINT NOT NULL,
    reason VARCHAR(255),
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Payers and their gateway mirrors
CREATE TABLE IF NOT EXISTS payers (
    id UUID PRIMARY KEY,
    payer_type VARCHAR(20) NOT NULL,
    dd_payer_id VARCHAR(255) NOT NULL,
    legacy_stripe_customer_id VARCHAR(255) NOT NULL DEFAULT '',
    country VARCHAR(2) NOT NULL,
    description TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at TIMESTAMPTZ
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_payers_dd_payer_id_type
    ON payers(dd_payer_id, payer_type) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS pgp_customers (
    id UUID PRIMARY KEY,
    payer_id UUID NOT NULL REFERENCES payers(id),
    pgp_code VARCHAR(20) NOT NULL,
    pgp_resource_id VARCHAR(255) NOT NULL,
    default_payment_method_id VARCHAR(255),
    currency VARCHAR(3),
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_pgp_customers_payer_id ON pgp_customers(payer_id);

-- Payment methods and their gateway mirrors
CREATE TABLE IF NOT EXISTS payment_methods (
    id UUID PRIMARY KEY,
    payer_id UUID NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS pgp_payment_methods (
    id UUID PRIMARY KEY,
    payment_method_id UUID NOT NULL REFERENCES payment_methods(id),
    payer_id UUID NOT NULL,
    pgp_code VARCHAR(20) NOT NULL,
    pgp_resource_id VARCHAR(255) NOT NULL,
    legacy_consumer_id VARCHAR(255),
    type VARCHAR(20) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    attached_at TIMESTAMPTZ,
    detached_at TIMESTAMPTZ,
    deleted_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_pgp_payment_methods_resource_id
    ON pgp_payment_methods(pgp_resource_id);

-- Legacy main-DB tables. Amounts on the charge shadows are NUMERIC major
-- units; everything above the repository speaks minor units.
CREATE TABLE IF NOT EXISTS stripe_customers (
    id BIGSERIAL PRIMARY KEY,
    stripe_id VARCHAR(255) NOT NULL,
    country_shortname VARCHAR(2) NOT NULL,
    owner_type VARCHAR(20) NOT NULL,
    owner_id BIGINT NOT NULL,
    default_card VARCHAR(255),
    default_source VARCHAR(255)
);

CREATE INDEX IF NOT EXISTS idx_stripe_customers_owner
    ON stripe_customers(owner_type, owner_id);

CREATE TABLE IF NOT EXISTS stripe_cards (
    id BIGSERIAL PRIMARY KEY,
    stripe_id VARCHAR(255) NOT NULL,
    fingerprint VARCHAR(255) NOT NULL DEFAULT '',
    last4 VARCHAR(4) NOT NULL DEFAULT '',
    dynamic_last4 VARCHAR(4) NOT NULL DEFAULT '',
    exp_month VARCHAR(2) NOT NULL DEFAULT '',
    exp_year VARCHAR(4) NOT NULL DEFAULT '',
    type VARCHAR(20) NOT NULL DEFAULT '',
    active BOOLEAN NOT NULL DEFAULT TRUE,
    country_of_origin VARCHAR(2),
    consumer_id BIGINT,
    stripe_customer_id BIGINT,
    tokenization_method VARCHAR(20),
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    removed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_stripe_cards_consumer_id ON stripe_cards(consumer_id);

CREATE TABLE IF NOT EXISTS consumer_charges (
    id BIGSERIAL PRIMARY KEY,
    target_id BIGINT NOT NULL,
    target_ct_id BIGINT NOT NULL DEFAULT 0,
    idempotency_key VARCHAR(255) NOT NULL,
    total NUMERIC(19, 4) NOT NULL,
    original_total NUMERIC(19, 4) NOT NULL,
    currency VARCHAR(3) NOT NULL,
    country_id BIGINT NOT NULL,
    stripe_customer_id BIGINT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_consumer_charges_idempotency_key
    ON consumer_charges(idempotency_key);

CREATE TABLE IF NOT EXISTS stripe_charges (
    id BIGSERIAL PRIMARY KEY,
    amount NUMERIC(19, 4) NOT NULL,
    amount_refunded NUMERIC(19, 4) NOT NULL DEFAULT 0,
    currency VARCHAR(3) NOT NULL,
    status VARCHAR(20) NOT NULL,
    error_reason VARCHAR(255),
    description TEXT,
    idempotency_key VARCHAR(255) NOT NULL,
    card_id BIGINT,
    charge_id BIGINT NOT NULL,
    stripe_id VARCHAR(255) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    refunded_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_stripe_charges_charge_id ON stripe_charges(charge_id);
`

	_, err := pool.Exec(ctx, migrationSQL)
	if err != nil {
		return fmt.Errorf("failed to execute migrations: %w", err)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
