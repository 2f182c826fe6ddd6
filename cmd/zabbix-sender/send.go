package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/pior/trapper"
	"github.com/pior/trapper/internal/cliconfig"
	"github.com/pior/trapper/protocol"
)

var errNotAccepted = errors.New("data was not accepted")

func run(ctx context.Context, cfg cliconfig.Config, log *zerolog.Logger, out io.Writer) error {
	sender, err := trapper.New(trapper.Config{
		Server:    cfg.Server,
		Port:      cfg.Port,
		Hostname:  cfg.Host,
		Timeout:   cfg.Timeout,
		Interval:  cfg.Interval,
		Retries:   cfg.Retries,
		KeepAlive: cfg.KeepAlive,
		Logger:    log,
	})
	if err != nil {
		return err
	}
	defer sender.Close()

	var res trapper.Result
	if cfg.InputFile != "" {
		if err := loadInput(sender.Buffer(), cfg.InputFile); err != nil {
			return err
		}
		res, err = sender.BulkSend(ctx)
	} else {
		res, err = sender.Send(ctx, cfg.Key, cfg.Value)
	}
	if err != nil {
		return err
	}

	report(out, sender, res)

	if !res.OK {
		log.Error().Err(res.Err).Int("attempts", res.Attempts).Msg("send failed")
		return errNotAccepted
	}
	return nil
}

func loadInput(buf *trapper.BulkBuffer, path string) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input file: %w", err)
		}
		defer f.Close()
		r = f
	}

	batches, err := cliconfig.ParseInput(r)
	if err != nil {
		return fmt.Errorf("input file: %w", err)
	}
	if len(batches) == 0 {
		return errors.New("input file: no values")
	}

	for _, b := range batches {
		if err := buf.AddRows(b.Host, b.Rows); err != nil {
			return fmt.Errorf("input file: %w", err)
		}
	}
	return nil
}

func report(out io.Writer, sender *trapper.Sender, res trapper.Result) {
	if res.Response == nil || res.Response.IsIndeterminate() {
		fmt.Fprintf(out, "no valid response after %d attempt(s)\n", res.Attempts)
		return
	}

	status := protocol.ResponseFailed
	if res.Response.IsSuccess() {
		status = protocol.ResponseSuccess
	}
	fmt.Fprintf(out, "Response from %q: %q, info: %q\n", sender.Addr(), status, res.Response.Info)

	info, err := protocol.ParseInfo(res.Response.Info)
	if err != nil {
		return
	}
	fmt.Fprintf(out, "sent: %d; skipped: %d; total: %d; seconds spent: %.6f\n",
		info.Processed, info.Failed, info.Total, info.Spent.Seconds())
}
