// Command assess answers the screening questionnaire, sends it encrypted to
// the scoring service and prints the decrypted result.
//
//	assess -server http://localhost:8080/ml 1,2,3,4,5,1,2,3,4
//
// Without answers on the command line the questions are asked on stdin.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"assessment-backend/client"
	"assessment-backend/config"
	"assessment-backend/encryption"
	"assessment-backend/models"
	"assessment-backend/storage"
	"assessment-backend/transport"
)

func main() {
	cfg, args, err := config.Parse(os.Args[0], os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	answers, err := parseAnswers(args)
	if err != nil {
		log.Fatalf("Invalid answers: %v", err)
	}

	scheme, err := encryption.NewScheme(cfg.Scoring.Scheme, cfg.Scoring.KeySize)
	if err != nil {
		log.Fatalf("Failed to set up encryption scheme: %v", err)
	}
	store, err := storage.Open(cfg.StorageOptions())
	if err != nil {
		log.Fatalf("Failed to open key store: %v", err)
	}
	defer store.Close()

	remote := transport.NewClient(cfg.Client.ServerURL, cfg.Client.Timeout.D())
	ctx := context.Background()

	labels := models.DefaultLabels()
	if info, err := remote.ModelInfo(ctx); err != nil {
		log.Printf("Model info unavailable, using default labels: %v", err)
	} else {
		labels = info.OutputLevels
	}

	keys := client.NewKeyManager(scheme, store, cfg.Client.Identity)
	session := client.NewSession(keys, remote, labels)
	if err := session.Start(); err != nil {
		log.Fatalf("Failed to prepare keys: %v", err)
	}
	if err := session.Begin(); err != nil {
		log.Fatalf("Failed to start questionnaire: %v", err)
	}

	if answers != nil {
		err = answerAll(session, answers)
	} else {
		err = askAll(session, os.Stdin, os.Stdout)
	}
	if err != nil {
		log.Fatalf("Questionnaire aborted: %v", err)
	}

	confirm := func() bool { return false }
	if answers == nil {
		confirm = func() bool { return askRetry(os.Stdin, os.Stdout) }
	}
	outcome, err := submit(ctx, session, confirm)
	if err != nil {
		log.Fatalf("Assessment failed: %v", err)
	}
	fmt.Printf("Depression level: %s (%d)\nConfidence: %d%%\n", outcome.Label, outcome.Level, outcome.Confidence)
}

// submit sends the answers once. After a failure the preserved answers are
// resent only when confirm agrees.
func submit(ctx context.Context, session *client.Session, confirm func() bool) (models.Outcome, error) {
	outcome, err := session.Submit(ctx)
	for err != nil {
		if busy(err) {
			log.Printf("Service busy: %v", err)
		} else {
			log.Printf("Submission failed: %v", err)
		}
		if !confirm() {
			return models.Outcome{}, err
		}
		outcome, err = session.Retry(ctx)
	}
	return outcome, nil
}

func busy(err error) bool {
	var terr *models.TransportError
	return errors.As(err, &terr) && terr.Status == http.StatusServiceUnavailable
}
