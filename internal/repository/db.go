package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrPortTaken 端口已被占用或不存在
	ErrPortTaken = errors.New("port is not available")
	// ErrActiveExists 用户已有未结束的会话
	ErrActiveExists = errors.New("active session already exists")
	// ErrAlreadyEnded 会话已结束
	ErrAlreadyEnded = errors.New("session already ended")
)

// pgUniqueViolation PostgreSQL 唯一约束冲突
const pgUniqueViolation = "23505"

// DB 数据库连接池封装
type DB struct {
	Pool *pgxpool.Pool
}

// New 创建数据库连接
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	// 连接池配置
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// 测试连接
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close 关闭连接池
func (db *DB) Close() {
	db.Pool.Close()
}

// Migrate 执行数据库迁移
func (db *DB) Migrate(ctx context.Context) error {
	migrations := []string{
		migrationCreateStations,
		migrationCreateVehicles,
		migrationCreateChargingSessions,
		migrationCreateTransactions,
		migrationSeedStations,
	}

	for _, m := range migrations {
		if _, err := db.Pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}

	return nil
}

// notFound 将 pgx.ErrNoRows 转换为 ErrNotFound
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// isUniqueViolation 判断是否为唯一约束冲突
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// 数据库迁移 SQL
const migrationCreateStations = `
CREATE TABLE IF NOT EXISTS stations (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    city VARCHAR(255) NOT NULL,
    nearby_landmark VARCHAR(255) NOT NULL DEFAULT '',
    address VARCHAR(512) NOT NULL DEFAULT '',
    latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
    longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
    operator_id BIGINT,
    status VARCHAR(20) NOT NULL DEFAULT 'available',
    rating DOUBLE PRECISION NOT NULL DEFAULT 0,
    total_reviews INT NOT NULL DEFAULT 0,
    amenities TEXT[] NOT NULL DEFAULT '{}',
    operating_hours VARCHAR(50) NOT NULL DEFAULT '24/7',
    ports JSONB NOT NULL DEFAULT '[]',
    pricing JSONB NOT NULL DEFAULT '{}',
    peak_start INT,
    peak_end INT,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_stations_city ON stations(city);
CREATE INDEX IF NOT EXISTS idx_stations_operator_id ON stations(operator_id);
`

const migrationCreateVehicles = `
CREATE TABLE IF NOT EXISTS vehicles (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    make VARCHAR(100) NOT NULL,
    model VARCHAR(100) NOT NULL,
    battery_capacity_kwh DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_vehicles_user_id ON vehicles(user_id);
`

const migrationCreateChargingSessions = `
CREATE TABLE IF NOT EXISTS charging_sessions (
    id UUID PRIMARY KEY,
    user_id BIGINT NOT NULL,
    station_id BIGINT NOT NULL REFERENCES stations(id),
    port_id VARCHAR(50) NOT NULL,
    charging_type VARCHAR(50) NOT NULL,
    payment_method VARCHAR(50) NOT NULL DEFAULT 'Wallet',
    vehicle_type VARCHAR(100) NOT NULL DEFAULT 'default',
    battery_capacity_kwh DOUBLE PRECISION NOT NULL,
    charger_power_kw DOUBLE PRECISION NOT NULL,
    status VARCHAR(20) NOT NULL,
    battery_start DOUBLE PRECISION NOT NULL,
    battery_target DOUBLE PRECISION NOT NULL,
    battery_current DOUBLE PRECISION NOT NULL,
    progress DOUBLE PRECISION NOT NULL DEFAULT 0,
    energy_delivered_kwh DOUBLE PRECISION NOT NULL DEFAULT 0,
    duration_min DOUBLE PRECISION NOT NULL DEFAULT 0,
    cost DOUBLE PRECISION,
    start_time TIMESTAMP WITH TIME ZONE NOT NULL,
    end_time TIMESTAMP WITH TIME ZONE,
    estimated_completion TIMESTAMP WITH TIME ZONE NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_charging_sessions_user_id ON charging_sessions(user_id);
CREATE INDEX IF NOT EXISTS idx_charging_sessions_station_id ON charging_sessions(station_id);
CREATE INDEX IF NOT EXISTS idx_charging_sessions_start_time ON charging_sessions(start_time);
CREATE UNIQUE INDEX IF NOT EXISTS idx_charging_sessions_user_active ON charging_sessions(user_id) WHERE end_time IS NULL;
`

const migrationCreateTransactions = `
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    session_id UUID REFERENCES charging_sessions(id),
    amount DOUBLE PRECISION NOT NULL,
    type VARCHAR(20) NOT NULL,
    payment_method VARCHAR(50) NOT NULL DEFAULT 'Wallet',
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id);
`

// 空库时写入演示充电站
const migrationSeedStations = `
INSERT INTO stations (name, city, nearby_landmark, address, latitude, longitude, status, rating, amenities, ports, pricing, peak_start, peak_end)
SELECT * FROM (VALUES
    ('Downtown Hub', 'San Francisco', 'Ferry Building', 'San Francisco - Ferry Building', 37.7955, -122.3937, 'available', 4.5,
     ARRAY['Cafe', 'WiFi'],
     '[{"id":"P1","type":"Fast DC","power":150,"status":"available","price":18},
       {"id":"P2","type":"Fast DC","power":150,"status":"available","price":18},
       {"id":"P3","type":"Normal AC","power":22,"status":"available","price":10},
       {"id":"P4","type":"Normal AC","power":22,"status":"available","price":10}]'::jsonb,
     '{"normal":{"base":10,"peak":14},"fast":{"base":18,"peak":24}}'::jsonb,
     18, 21),
    ('Mission Plaza', 'San Francisco', 'Mission Dolores Park', 'San Francisco - Mission Dolores Park', 37.7596, -122.4269, 'available', 4.1,
     ARRAY['Restroom'],
     '[{"id":"P1","type":"Ultra Fast DC","power":350,"status":"available","price":22},
       {"id":"P2","type":"Slow AC","power":7.4,"status":"available","price":8}]'::jsonb,
     '{"normal":{"base":8,"peak":11},"fast":{"base":22,"peak":28}}'::jsonb,
     17, 20)
) AS seed
WHERE NOT EXISTS (SELECT 1 FROM stations);
`
