package inmemdb

import (
	"sync"

	"github.com/trezcool/ratiba/core/appointment"
	"github.com/trezcool/ratiba/core/message"
	"github.com/trezcool/ratiba/core/user"
)

type (
	DB struct {
		user        *userTable
		appointment *appointmentTable
		message     *messageTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.Identity
	}

	appointmentTable struct {
		sync.RWMutex
		table map[string]*appointment.Appointment
	}

	messageTable struct {
		sync.RWMutex
		table map[string]*message.Message
	}
)

func Open() *DB {
	return &DB{
		user:        &userTable{table: make(map[string]*user.Identity)},
		appointment: &appointmentTable{table: make(map[string]*appointment.Appointment)},
		message:     &messageTable{table: make(map[string]*message.Message)},
	}
}

func (db *DB) Close() error { return nil }
