package dig_container

import (
	"context"
	"fmt"
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	"github.com/simplesis/simplesis/apps/web/echo"
	"github.com/simplesis/simplesis/core"
	"github.com/simplesis/simplesis/core/activity"
	"github.com/simplesis/simplesis/core/lookup"
	"github.com/simplesis/simplesis/core/school"
	"github.com/simplesis/simplesis/core/user"
	"github.com/simplesis/simplesis/services/email"
	"github.com/simplesis/simplesis/services/logger"
	"github.com/simplesis/simplesis/storage/database"
	sqlxrepos "github.com/simplesis/simplesis/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config, name string) core.Logger {
	zl, err := logsvc.NewZapLogger(conf.LogLevel, conf.LogFormat, name)
	if err != nil {
		log.Fatalf("building %s logger: %v", name, err)
	}
	return logsvc.NewRollbarLogger(zl, conf)
}

func newAppLogger(conf *core.Config) core.Logger { return newLogger(conf, "web") }

func newDBLogger(conf *core.Config) core.Logger { return newLogger(conf, "db") }

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DBExecutor) {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	school.InitValidators(validate, translator)
	return validate
}

func newServer(
	conf *core.Config,
	db *sqlx.DB,
	logger core.Logger,
	validate *validator.Validate,
	translator ut.Translator,
	usrSvc user.Service,
	schoolSvc school.Service,
	lookupSvc lookup.Service,
	activitySvc activity.Service,
) (*echoweb.Server, error) {
	return echoweb.NewServer(echoweb.ServerDeps{
		Conf:        conf,
		Logger:      logger,
		Validate:    validate,
		Translator:  translator,
		UserSvc:     usrSvc,
		SchoolSvc:   schoolSvc,
		LookupSvc:   lookupSvc,
		ActivitySvc: activitySvc,
		HealthCheck: func(ctx context.Context) error { return database.StatusCheck(ctx, db) },
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newAppLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newEmailService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))

	must(c.Provide(sqlxrepos.NewUserRepository))
	must(c.Provide(sqlxrepos.NewSchoolRepository))
	must(c.Provide(sqlxrepos.NewLookupRepository))
	must(c.Provide(sqlxrepos.NewActivityRepository))

	must(c.Provide(user.NewService))
	must(c.Provide(school.NewService))
	must(c.Provide(lookup.NewService))
	must(c.Provide(activity.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
