// Command sealtool seals, opens, and ingests telemetry envelopes from the
// command line. It is the reference encoder for cooperating edge clients and
// a smoke-test harness for deployed ingest configurations.
//
// Usage:
//
//	sealtool seal [-config file] [-version v] [-no-signature] < fields.json
//	sealtool open [-config file] < envelope.json
//	sealtool ingest [-config file] < envelope.json
//
// The shared secret resolves through the configuration (default: the
// TABLEWIRE_SECRET environment variable, with .env honored when present).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	tablewire "github.com/tablewire/telemetry-go"
	"github.com/tablewire/telemetry-go/config"
	"github.com/tablewire/telemetry-go/memstore"
	"github.com/tablewire/telemetry-go/secrets"
)

const usage = `usage: sealtool <command> [flags]

commands:
  seal    read business fields JSON from stdin, write a sealed envelope
  open    read an envelope from stdin, write the decrypted payload
  ingest  read an envelope from stdin, persist it through the configured store`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fatal("%v", err)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) < 1 {
		return errors.New(usage)
	}

	if err := secrets.LoadDotenv(".env"); err != nil {
		return err
	}

	switch args[0] {
	case "seal":
		return runSeal(args[1:], stdin, stdout)
	case "open":
		return runOpen(args[1:], stdin, stdout)
	case "ingest":
		return runIngest(args[1:], stdin, stdout)
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func runSeal(args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := flag.NewFlagSet("seal", flag.ContinueOnError)
	configPath := cmd.String("config", "", "path to YAML configuration")
	version := cmd.String("version", "", "override the protocol version stamp")
	noSignature := cmd.Bool("no-signature", false, "seal without a signature")
	if err := cmd.Parse(args); err != nil {
		return err
	}

	cfg, secret, err := load(*configPath)
	if err != nil {
		return err
	}

	var opts []tablewire.EncoderOption
	if cfg.Protocol.IVSeed != "" {
		opts = append(opts, tablewire.WithEncoderIVSeed(cfg.Protocol.IVSeed))
	}
	if *version != "" {
		opts = append(opts, tablewire.WithProtocolVersion(*version))
	}
	if *noSignature {
		opts = append(opts, tablewire.WithoutSignature())
	}

	enc, err := tablewire.NewEncoder(secret, opts...)
	if err != nil {
		return err
	}

	var fields map[string]any
	if err := json.NewDecoder(stdin).Decode(&fields); err != nil {
		return fmt.Errorf("parse fields: %w", err)
	}

	env, err := enc.Seal(fields)
	if err != nil {
		return err
	}
	return json.NewEncoder(stdout).Encode(env)
}

func runOpen(args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := flag.NewFlagSet("open", flag.ContinueOnError)
	configPath := cmd.String("config", "", "path to YAML configuration")
	if err := cmd.Parse(args); err != nil {
		return err
	}

	cfg, secret, err := load(*configPath)
	if err != nil {
		return err
	}

	// Open never persists; the store requirement is satisfied in memory.
	ing, err := tablewire.New(secret, memstore.New(), cfg.IngestOptions()...)
	if err != nil {
		return err
	}

	raw, err := io.ReadAll(stdin)
	if err != nil {
		return fmt.Errorf("read envelope: %w", err)
	}
	payload, err := ing.Open(raw)
	if err != nil {
		return err
	}

	out := struct {
		ID              string         `json:"id"`
		Fields          map[string]any `json:"fields"`
		IssuedAt        time.Time      `json:"issuedAt"`
		Version         string         `json:"version,omitempty"`
		SignatureStatus string         `json:"signatureStatus"`
	}{
		ID:              payload.ID,
		Fields:          payload.Fields,
		IssuedAt:        payload.IssuedAt,
		Version:         payload.Version,
		SignatureStatus: string(payload.SignatureStatus),
	}
	return json.NewEncoder(stdout).Encode(out)
}

func runIngest(args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := flag.NewFlagSet("ingest", flag.ContinueOnError)
	configPath := cmd.String("config", "", "path to YAML configuration")
	if err := cmd.Parse(args); err != nil {
		return err
	}

	cfg, secret, err := load(*configPath)
	if err != nil {
		return err
	}

	store, closeStore, err := cfg.OpenStore()
	if err != nil {
		return err
	}
	defer closeStore()

	ing, err := tablewire.New(secret, store, cfg.IngestOptions()...)
	if err != nil {
		return err
	}

	raw, err := io.ReadAll(stdin)
	if err != nil {
		return fmt.Errorf("read envelope: %w", err)
	}
	res, err := ing.Ingest(context.Background(), raw)
	if err != nil {
		return err
	}
	return json.NewEncoder(stdout).Encode(res)
}

func load(configPath string) (*config.Config, string, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	}

	secret, err := cfg.SecretSource().Resolve()
	if err != nil {
		return nil, "", fmt.Errorf("resolve secret: %w", err)
	}
	return cfg, secret, nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
