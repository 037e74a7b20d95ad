package model

import "errors"

var ErrUnknownBarber = errors.New("unknown barber")

// Barber is the local replica of a barber owned by barber-service.
type Barber struct {
	ID      string
	Name    string
	Deleted bool
}
