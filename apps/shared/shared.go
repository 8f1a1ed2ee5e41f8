// Package shared wires the dependencies common to the portal programs.
package shared

import (
	"context"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/apoiopedagogico/portal/core"
	"github.com/apoiopedagogico/portal/core/account"
	"github.com/apoiopedagogico/portal/core/formation"
	"github.com/apoiopedagogico/portal/core/profile"
	"github.com/apoiopedagogico/portal/core/session"
	"github.com/apoiopedagogico/portal/core/trainer"
	emailsvc "github.com/apoiopedagogico/portal/services/email"
	logsvc "github.com/apoiopedagogico/portal/services/logger"
	"github.com/apoiopedagogico/portal/storage/clientstore"
	"github.com/apoiopedagogico/portal/storage/database"
	inmemdb "github.com/apoiopedagogico/portal/storage/database/inmem"
	boiledrepos "github.com/apoiopedagogico/portal/storage/database/sqlboiler"
	sqlxrepos "github.com/apoiopedagogico/portal/storage/database/sqlx"
)

const (
	// MemoryEngine keeps every repository in process memory. Nothing survives a restart.
	MemoryEngine = "memory"

	hintBackendFile  = "file"
	hintBackendRedis = "redis"
)

var ErrNoDatabase = errors.New("the memory engine has no database")

type Repositories struct {
	Accounts   account.Repository
	Profiles   profile.Repository
	Trainers   trainer.Repository
	Formations formation.Repository

	// DB is nil with the memory engine.
	DB *sqlx.DB
}

func (r Repositories) Close() error {
	if r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

func NewLogger(conf *core.Config) *logsvc.RollbarLogger {
	logger := logsvc.NewRollbarLogger(logsvc.NewZerolog(os.Stdout, conf), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

// NewValidator returns a validator with the translations and custom tags of every core package.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	session.InitValidators(validate, translator)
	account.InitValidators(validate, translator)
	return validate, translator
}

// NewMailService prints mails in debug mode and sends them through Sendgrid otherwise.
func NewMailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

// OpenRepositories opens the configured storage. PostgreSQL databases are created when missing, and
// migrated when migrate is set.
func OpenRepositories(ctx context.Context, conf *core.Config, migrate bool) (Repositories, error) {
	if conf.Database.Engine == MemoryEngine {
		db := inmemdb.Open()
		return Repositories{
			Accounts:   inmemdb.NewAccountRepository(db),
			Profiles:   inmemdb.NewProfileRepository(db),
			Trainers:   inmemdb.NewTrainerRepository(db),
			Formations: inmemdb.NewFormationRepository(db),
		}, nil
	}

	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return Repositories{}, errors.Wrap(err, "creating database")
	}
	db, err := database.Open(conf)
	if err != nil {
		return Repositories{}, errors.Wrap(err, "opening database")
	}
	if migrate {
		if err = database.Migrate(ctx, db.DB); err != nil {
			_ = db.Close()
			return Repositories{}, errors.Wrap(err, "migrating database")
		}
	}
	return Repositories{
		Accounts:   sqlxrepos.NewAccountRepository(db),
		Profiles:   sqlxrepos.NewProfileRepository(db),
		Trainers:   sqlxrepos.NewTrainerRepository(db),
		Formations: boiledrepos.NewFormationRepository(db),
		DB:         db,
	}, nil
}

// ClientStores holds the durable client state of the admin CLI session.
type ClientStores struct {
	Creds clientstore.CredentialStore
	Hints session.HintStore

	redis *redis.Client
}

func (cs ClientStores) Close() error {
	if cs.redis == nil {
		return nil
	}
	return cs.redis.Close()
}

// OpenClientStores opens the credential store and the role hint store selected by the client config.
// The UID always lives in the file store, except with the memory backend.
func OpenClientStores(conf *core.Config) (ClientStores, error) {
	switch conf.Client.HintBackend {
	case hintBackendFile, hintBackendRedis:
	default:
		mem := clientstore.NewMemoryStore()
		return ClientStores{Creds: mem, Hints: mem}, nil
	}

	file, err := clientstore.NewFileStore(conf.Client.StorePath)
	if err != nil {
		return ClientStores{}, errors.Wrap(err, "opening client store")
	}
	if conf.Client.HintBackend == hintBackendFile {
		return ClientStores{Creds: file, Hints: file}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	return ClientStores{
		Creds: file,
		Hints: clientstore.NewRedisStore(client, conf.Client.HintKey),
		redis: client,
	}, nil
}
