package database

import (
	"context"
	"net/url"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/appointment"
	"github.com/trezcool/ratiba/core/message"
	"github.com/trezcool/ratiba/core/user"
	"github.com/trezcool/ratiba/storage/database/inmem"
	"github.com/trezcool/ratiba/storage/database/mongodb"
	"github.com/trezcool/ratiba/storage/database/sqlx"
)

// Stores bundles the repositories of one backing store.
type Stores struct {
	Users        user.Repository
	Appointments appointment.Repository
	Messages     message.Repository

	// Migrate is nil for stores without a schema.
	Migrate func(command string, version int64) error
	closeFn func() error
}

func (s *Stores) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

// Open selects the store from the scheme of conf.DatabaseURL:
// mongodb(+srv)://, postgres(ql):// or memory://.
func Open(ctx context.Context, conf *core.Config) (*Stores, error) {
	u, err := url.Parse(conf.DatabaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing database url")
	}

	switch u.Scheme {
	case "memory":
		return OpenMemory(), nil

	case "mongodb", "mongodb+srv":
		db, err := mongodb.Open(ctx, conf.DatabaseURL, conf.DatabaseName)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Users:        mongodb.NewUserRepository(db),
			Appointments: mongodb.NewAppointmentRepository(db),
			Messages:     mongodb.NewMessageRepository(db),
			closeFn:      db.Close,
		}, nil

	case "postgres", "postgresql":
		db, err := sqlxdb.Open(ctx, conf.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err = sqlxdb.Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Stores{
			Users:        sqlxdb.NewUserRepository(db),
			Appointments: sqlxdb.NewAppointmentRepository(db),
			Messages:     sqlxdb.NewMessageRepository(db),
			Migrate: func(command string, version int64) error {
				return sqlxdb.MigrateCommand(db, command, version)
			},
			closeFn: db.Close,
		}, nil
	}
	return nil, errors.Errorf("unsupported database url scheme %q", u.Scheme)
}

// OpenMemory returns a fresh in-process store.
func OpenMemory() *Stores {
	db := inmemdb.Open()
	return &Stores{
		Users:        inmemdb.NewUserRepository(db),
		Appointments: inmemdb.NewAppointmentRepository(db),
		Messages:     inmemdb.NewMessageRepository(db),
		closeFn:      db.Close,
	}
}
