package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

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

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZapLogger(conf.LogLevel, conf.LogFormat, "admin")
	if err != nil {
		fmt.Fprintf(os.Stderr, "building logger: %v\n", err)
		os.Exit(1)
	}
	logger := logsvc.NewRollbarLogger(zl, conf)
	defer logger.Sync()

	core.ParseEmailTemplates(conf, logger)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer func() { _ = db.Close() }()
	if err = db.Ping(); err != nil {
		logger.Fatal("pinging database", err)
	}

	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	school.InitValidators(validate, translator)

	lookupSvc := lookup.NewService(sqlxrepos.NewLookupRepository(db))

	// start CLI
	cli := commandLine{
		db:          db,
		logger:      logger,
		validate:    validate,
		translator:  translator,
		usrSvc:      user.NewService(conf, sqlxrepos.NewUserRepository(db), emailsvc.NewConsoleService(conf, logger)),
		schoolSvc:   school.NewService(sqlxrepos.NewSchoolRepository(db)),
		lookupSvc:   lookupSvc,
		activitySvc: activity.NewService(sqlxrepos.NewActivityRepository(db), lookupSvc),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			cli.printError(err)
		}
		logger.Sync()
		os.Exit(1)
	}
}
