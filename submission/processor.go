// Package submission accepts final screening submissions on the service side:
// it re-validates the stored screening, marks it complete and hands a copy to
// the archive and to downstream consumers.
package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"text2phenotype.com/sdoh/logger"
	"text2phenotype.com/sdoh/rmq"
	"text2phenotype.com/sdoh/s3client"
	"text2phenotype.com/sdoh/screenings"
	"text2phenotype.com/sdoh/types"
	"text2phenotype.com/sdoh/utils"
	"text2phenotype.com/sdoh/validation"
)

type incompleteError struct {
	missingFields []string
}

func (e *incompleteError) Error() string {
	return fmt.Sprintf("screening is missing %d fields", len(e.missingFields))
}

type Processor struct {
	screenings      screeningTransactions
	s3              s3Transactions
	rmq             rmqTransactions
	processorLogger *zerolog.Logger
	newID           func() string
}

// New builds a processor. A nil archive or events client disables that step.
func New(screeningsClient *screenings.Client, archive *s3client.Client, events *rmq.Client) *Processor {
	processorLogger := logger.NewLogger("Submission processor")
	processor := Processor{
		screenings:      &screeningsClientWrapper{screeningsClient},
		processorLogger: &processorLogger,
		newID:           uuid.NewString,
	}
	if archive != nil {
		processor.s3 = &s3ClientWrapper{archive}
	}
	if events != nil {
		processor.rmq = &rmqClientWrapper{events}
	}
	return &processor
}

// Process submits the screening for token. Incomplete screenings are answered
// with success=false and the missing fields rather than an error. Submitting
// an already complete screening succeeds again without side effects.
func (processor *Processor) Process(ctx context.Context, token string) (response *types.SubmitResponse, err error) {
	defer utils.RecoverWithError(&err)
	tokenHash := utils.HashToken(token)
	submitLogger := processor.processorLogger.With().Str("token_hash", tokenHash).Logger()

	record, done, err := processor.screenings.complete(ctx, token, func(record *screenings.Record) error {
		missing := validation.GetMissingFields(record.Answers, record.Demographics)
		if len(missing) > 0 {
			return &incompleteError{missingFields: missing}
		}
		return nil
	})
	var incomplete *incompleteError
	if errors.As(err, &incomplete) {
		submitLogger.Info().Int("missing", len(incomplete.missingFields)).Msg("Rejected incomplete submission")
		return &types.SubmitResponse{
			Success:       false,
			MissingFields: incomplete.missingFields,
			Message:       "Screening is incomplete",
		}, nil
	}
	if err != nil {
		submitLogger.Err(err).Msg("Could not complete screening")
		return nil, err
	}
	if !done {
		submitLogger.Info().Msg("Screening was already submitted")
		return &types.SubmitResponse{Success: true, Message: "Screening already submitted"}, nil
	}

	submittedAt := time.Now().UTC()
	if record.SubmittedAt != nil {
		submittedAt = *record.SubmittedAt
	}
	event := Event{
		EventID:     processor.newID(),
		Type:        EventTypeSubmitted,
		TokenHash:   tokenHash,
		ClinicName:  record.ClinicInfo.ClinicName,
		SubmittedAt: submittedAt,
	}
	eventLogger := submitLogger.With().Str("event_id", event.EventID).Logger()

	// The screening is complete at this point; archive and event failures are
	// logged for replay and do not fail the patient's submission.
	if processor.s3 != nil {
		key := ArchiveKey(tokenHash, event.EventID)
		err = processor.s3.saveSubmission(ctx, key, Submission{
			EventID:      event.EventID,
			TokenHash:    tokenHash,
			SubmittedAt:  submittedAt,
			ClinicInfo:   record.ClinicInfo,
			Answers:      record.Answers,
			Demographics: record.Demographics,
		})
		if err != nil {
			eventLogger.Err(err).Str("key", key).Msg("Failed to archive submission")
		} else {
			event.ArchiveKey = key
		}
	}
	if processor.rmq != nil {
		if err = processor.rmq.publishEvent(event); err != nil {
			eventLogger.Err(err).Msg("Failed to publish submission event")
		}
	}
	eventLogger.Info().Msg("Screening submitted")
	return &types.SubmitResponse{Success: true, Message: "Screening submitted"}, nil
}
