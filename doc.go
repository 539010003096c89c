// Package tablewire implements the secure telemetry ingestion protocol of
// the Tablewire restaurant-operations backend: clients submit encrypted
// call-log envelopes (voice transcripts, durations, recording references)
// that the server decrypts, authenticates, validates for freshness, and
// persists exactly once.
//
// Envelopes are sealed with AES-256-CBC under per-message keys derived via
// PBKDF2-SHA-256 from a process-wide shared secret, signed with
// HMAC-SHA-256, and rejected when their embedded issuance timestamp falls
// outside a five-minute acceptance window. Every failure maps to one code
// of a closed taxonomy; see IngestError.
//
// Basic usage:
//
//	store := memstore.New()
//	ing, err := tablewire.New(os.Getenv("TABLEWIRE_SECRET"), store)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// raw is the JSON envelope as received from a client
//	result, err := ing.Ingest(ctx, raw)
//	if errors.Is(err, tablewire.ErrReplayDetected) {
//	    // stale envelope, nothing was persisted
//	}
//
//	fmt.Println("persisted:", result.ID)
//
// The package also ships the cooperating encoder used by edge clients:
//
//	enc, _ := tablewire.NewEncoder(secret)
//	env, _ := enc.Seal(map[string]any{"callId": "call_1", "duration": 42})
package tablewire
