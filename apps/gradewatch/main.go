package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/gradewatch/apps/api/echo"
	"github.com/trezcool/gradewatch/core"
	"github.com/trezcool/gradewatch/core/student"
	emailsvc "github.com/trezcool/gradewatch/services/email"
	logsvc "github.com/trezcool/gradewatch/services/logger"
	pushsvc "github.com/trezcool/gradewatch/services/push"
	"github.com/trezcool/gradewatch/services/studentvue"
)

func main() {
	os.Exit(start())
}

func start() int {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	var logFile io.Writer
	if conf.LogFile != "" {
		f, err := os.OpenFile(conf.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			log.Printf("opening log file: %v", err)
			return 1
		}
		defer f.Close()
		logFile = f
	}
	logger := logsvc.NewRollbarLogger(conf, logFile)
	defer logger.Close()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	if err := conf.Validate(validate, translator); err != nil {
		logger.Error("invalid configuration", err)
		return 1
	}

	notifiers, err := newNotifiers(conf)
	if err != nil {
		logger.Error("setting up notifiers", err)
		return 1
	}

	// =========================================================================
	// Start CLI

	cli := commandLine{
		conf:      conf,
		log:       logger,
		out:       os.Stdout,
		notifiers: notifiers,
		newFetcher: func(svConf core.StudentVueConfig) student.Fetcher {
			return studentvue.NewCachedFetcher(studentvue.NewClient(svConf, logger), svConf.CacheTTL)
		},
		serve: func(opts *echoapi.Options) error {
			return serveAPI(opts, conf, logger)
		},
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("%s: %v", conf.AppName, err), err)
		}
		return 1
	}
	return 0
}

func newNotifiers(conf *core.Config) ([]core.Notifier, error) {
	var notifiers []core.Notifier
	if conf.Email.Enabled {
		mailSvc, err := emailsvc.NewService(conf)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, mailSvc)
	}
	return append(notifiers, pushsvc.NewServices(conf)...), nil
}

// serveAPI runs the API server until it fails or a shutdown signal is received.
func serveAPI(opts *echoapi.Options, conf *core.Config, logger core.Logger) error {
	server := echoapi.NewServer(opts)

	errs := make(chan error, 1)
	go func() {
		errs <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// =========================================================================
	// Shutdown

	select {
	case err := <-errs:
		return err

	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Stop(ctx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		if err := <-errs; err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}
