// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/goccy/go-json"
	flag "github.com/spf13/pflag"

	"github.com/tomtom215/mealreco/internal/app"
	"github.com/tomtom215/mealreco/internal/eventprocessor"
	"github.com/tomtom215/mealreco/internal/logging"
	"github.com/tomtom215/mealreco/internal/models"
	"github.com/tomtom215/mealreco/internal/objectstore"
)

// session is an opened lake with its stages.
type session struct {
	backends *app.Backends
	pipeline *app.Pipeline
	bus      *eventprocessor.Bus
}

func (s *session) close() {
	if s.bus != nil {
		s.bus.Shutdown(context.Background())
	}
	if err := s.backends.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing backends")
	}
}

// discard swallows storage events so a stage runs without its successors.
type discard struct{}

func (discard) PublishNotification(context.Context, string, models.Notification) error { return nil }

// open builds the pipeline. With cascade, writes trigger the following
// stages: through NATS when it is enabled, in process otherwise.
func (c *cli) open(ctx context.Context, cascade bool) (*session, error) {
	b, err := app.Open(ctx, c.cfg)
	if err != nil {
		return nil, err
	}
	s := &session{backends: b}

	var publisher objectstore.EventPublisher
	switch {
	case !cascade:
		publisher = discard{}
	case c.cfg.NATS.Enabled:
		// The server owns the embedded NATS server; connect to it instead.
		natsCfg := c.cfg.NATS
		natsCfg.EmbeddedServer = false
		s.bus, err = eventprocessor.NewBus(ctx, &natsCfg, watermill.NewSlogLogger(logging.NewSlogLogger()))
		if err != nil {
			s.close()
			return nil, err
		}
		publisher = s.bus.Publisher()
	}

	s.pipeline, err = app.NewPipeline(c.cfg, b, publisher)
	if err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

func (c *cli) runPut(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("put", flag.ContinueOnError)
	name := fs.String("name", "", "Object name under data/raw/ (default: the file's base name)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: lakectl put [options] <file>

Description:
  Upload a file to the raw zone. The write raises a storage event, so the
  raw, formatted and curated stages follow.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}

	path := fs.Arg(0)
	objectName := *name
	if objectName == "" {
		objectName = filepath.Base(path)
	}
	if objectName == "" || objectName == "." || models.IsPlaceholderKey(objectName) {
		return fmt.Errorf("invalid object name %q", objectName)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(body) == 0 {
		return fmt.Errorf("%s is empty", path)
	}

	s, err := c.open(ctx, true)
	if err != nil {
		return err
	}
	defer s.close()

	key := models.StageRaw.Key(objectName)
	if err := s.pipeline.Lake.Put(ctx, key, body); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "uploaded %s (%d bytes)\n", key, len(body))
	return nil
}

func (c *cli) runStage(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	cascade := fs.Bool("cascade", false, "Let the stage's output trigger the following stages")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: lakectl run [options] <stage> <key>

Description:
  Run one stage (raw, formated, curated) against one lake object and print
  the invocation summary as JSON. Use it to re-drive a fixed object.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return errUsage
	}

	name, key := fs.Arg(0), fs.Arg(1)
	stage, ok := models.ParseStage(name)
	if !ok {
		return fmt.Errorf("unknown stage %q", name)
	}

	s, err := c.open(ctx, *cascade)
	if err != nil {
		return err
	}
	defer s.close()

	st, ok := s.pipeline.Stages.For(stage)
	if !ok {
		return fmt.Errorf("stage %q is not wired", name)
	}
	summary := st.Run(ctx, key)

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, string(out))
	if summary.Failed > 0 {
		return errors.New("stage reported failures")
	}
	return nil
}

func (c *cli) runList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: lakectl ls <stage>\n")
	}
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}
	stage, ok := models.ParseStage(fs.Arg(0))
	if !ok {
		return fmt.Errorf("unknown stage %q", fs.Arg(0))
	}

	b, err := app.Open(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing backends")
		}
	}()

	objects, err := b.Lake.List(ctx, stage.Prefix())
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tSIZE\tMODIFIED")
	for _, o := range objects {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", o.Key, o.Size, o.ModifiedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}
