package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/goliatone/go-formkit"
	"github.com/goliatone/go-formkit/internal/store"
	"github.com/goliatone/go-formkit/pkg/render"
)

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var cf catalogFlags
	cf.register(fs)
	addr := fs.String("addr", ":3000", "listen address")
	db := fs.String("db", "formkit.db", "sqlite database file (:memory: for a throwaway store)")
	csrf := fs.String("csrf", "", "token submitted with every form as _csrf")
	seed := fs.Bool("seed", false, "add an empty record for every schema without records")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := cf.logger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	catalog, err := cf.load(ctx)
	if err != nil {
		return err
	}
	st, err := store.Open(*db, store.WithDebug(cf.debug))
	if err != nil {
		return err
	}
	defer st.Close()

	var opts []render.Option
	if *csrf != "" {
		opts = append(opts, render.WithHiddenFields(render.CSRFToken("_csrf", *csrf)))
	}
	kit, err := formkit.NewKit(logger, opts...)
	if err != nil {
		return err
	}

	if *seed {
		for _, name := range catalog.Names() {
			records, err := st.List(name)
			if err != nil {
				return err
			}
			if len(records) > 0 {
				continue
			}
			rec, err := st.Insert(name, nil)
			if err != nil {
				return err
			}
			logger.Info("seeded", zap.String("schema", name), zap.Int64("id", rec.ID))
		}
	}

	srv := NewServer(*addr, st, catalog, kit, logger)
	srv.Start()
	<-ctx.Done()
	return srv.Stop()
}
