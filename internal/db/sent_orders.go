package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fairytale-chat/internal/models"
)

// InsertSentOrder records a delivered order
func (d *DB) InsertSentOrder(order *models.SentOrder) error {
	data, err := json.Marshal(order.Order)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	return d.WithLock(func() error {
		_, err := d.db.Exec(
			`INSERT INTO sent_orders (id, recipient, order_json, email_id, created_at) VALUES (?, ?, ?, ?, ?)`,
			order.ID, order.Recipient, string(data), order.EmailID, order.CreatedAt,
		)
		return err
	})
}

// GetSentOrder retrieves a delivered order by id
func (d *DB) GetSentOrder(id string) (*models.SentOrder, error) {
	return WithLockResult(d, func() (*models.SentOrder, error) {
		row := d.db.QueryRow(
			`SELECT id, recipient, order_json, email_id, created_at FROM sent_orders WHERE id = ?`,
			id,
		)
		order, err := scanSentOrder(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return order, err
	})
}

// ListSentOrders returns delivered orders, newest first
func (d *DB) ListSentOrders(limit int) ([]models.SentOrder, error) {
	return WithLockResult(d, func() ([]models.SentOrder, error) {
		rows, err := d.db.Query(
			`SELECT id, recipient, order_json, email_id, created_at FROM sent_orders ORDER BY created_at DESC LIMIT ?`,
			limit,
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		orders := []models.SentOrder{}
		for rows.Next() {
			order, err := scanSentOrder(rows)
			if err != nil {
				return nil, err
			}
			orders = append(orders, *order)
		}
		return orders, rows.Err()
	})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSentOrder(s scanner) (*models.SentOrder, error) {
	var order models.SentOrder
	var data string
	if err := s.Scan(&order.ID, &order.Recipient, &data, &order.EmailID, &order.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &order.Order); err != nil {
		return nil, fmt.Errorf("failed to decode order %s: %w", order.ID, err)
	}
	return &order, nil
}
