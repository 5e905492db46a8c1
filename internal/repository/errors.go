package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrSlotNotFound = errors.New("time slot does not exist")
	ErrSlotTaken    = errors.New("time slot is already booked")

	// ErrStatusChanged reports a conditional status update that matched no row.
	ErrStatusChanged = errors.New("booking status changed concurrently")
)

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
