package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"time"

	"github.com/google/uuid"

	"kickoff/internal/intake/models"
	"kickoff/internal/intake/signature"
	"kickoff/internal/platform/privacy"
	"kickoff/internal/platform/tracer"
	dErrors "kickoff/pkg/domain-errors"
	"kickoff/pkg/requestcontext"
)

// Process runs one webhook delivery through the pipeline. raw must be the
// body exactly as received. The record store and notifier are only called
// once every check has passed.
func (s *Service) Process(ctx context.Context, raw []byte, signatureHeader string) (res Result) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanIntakeProcess)
	defer func() {
		span.SetAttributes(tracer.String(tracer.AttrOutcome, string(res.Outcome)))
		var spanErr error
		if res.Failed() {
			spanErr = errors.New(string(res.Outcome))
		}
		span.End(spanErr)
		s.metrics.IncSubmission(string(res.Outcome))
	}()

	sig := s.verifier.Verify(raw, signatureHeader)
	span.SetAttributes(tracer.Bool(tracer.AttrSigBypassed, sig == signature.Bypassed))
	if !sig.Authentic() {
		s.logger.WarnContext(ctx, "webhook rejected",
			"reason", "signature_"+sig.String(),
			"client_ip", privacy.AnonymizeIP(requestcontext.ClientIP(ctx)),
			"request_id", requestcontext.RequestID(ctx),
		)
		return reject(OutcomeInvalidSignature, msgInvalidSignature)
	}

	if s.listID == "" {
		s.logger.ErrorContext(ctx, "record store list id not configured",
			"request_id", requestcontext.RequestID(ctx),
		)
		return reject(OutcomeMisconfigured, msgMisconfigured)
	}

	sub, err := models.ParseWebhook(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "webhook rejected",
			"reason", "invalid_payload",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return reject(OutcomeInvalidPayload, msgInvalidPayload)
	}
	span.SetAttributes(
		tracer.String(tracer.AttrFormID, sub.FormID),
		tracer.Int64(tracer.AttrAnswerCount, int64(len(sub.Answers))),
	)

	if s.expectedFormID != "" && sub.FormID != s.expectedFormID {
		s.logger.WarnContext(ctx, "webhook rejected",
			"reason", "unexpected_form",
			"form_id", sub.FormID,
			"request_id", requestcontext.RequestID(ctx),
		)
		return reject(OutcomeUnexpectedForm, msgUnexpectedForm)
	}

	record := s.mapper.Map(*sub)
	span.SetAttributes(tracer.Int64(tracer.AttrUnmapped, int64(len(record.UnmappedRefs))))
	if len(record.UnmappedRefs) > 0 {
		s.metrics.AddUnmappedRefs(len(record.UnmappedRefs))
		s.logger.WarnContext(ctx, "answers with unmapped field refs",
			"form_id", sub.FormID,
			"unmapped_refs", record.UnmappedRefs,
			"table", s.mapper.Table().Name(),
		)
	}

	if record.HasMissing() {
		span.SetAttributes(tracer.Int64(tracer.AttrMissingCount, int64(len(record.MissingRequired))))
		s.logger.WarnContext(ctx, "webhook rejected",
			"reason", "missing_required_fields",
			"form_id", sub.FormID,
			"missing", record.MissingRequired,
			"request_id", requestcontext.RequestID(ctx),
		)
		return rejectMissing(record.MissingRequired)
	}

	itemID, err := s.storeRecord(ctx, record)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record submission",
			"error", err,
			"code", dErrors.CodeOf(err),
			"transient", dErrors.IsTransient(err),
			"form_id", sub.FormID,
			"list_id", s.listID,
			"request_id", requestcontext.RequestID(ctx),
		)
		return reject(OutcomeStoreFailed, msgStoreFailed)
	}

	emailSent := s.notify(ctx, sub.FormID, record)
	s.publish(ctx, sub, itemID, emailSent, record.UnmappedRefs)

	s.logger.InfoContext(ctx, "submission recorded",
		"form_id", sub.FormID,
		"item_id", itemID,
		"email_sent", emailSent,
		"request_id", requestcontext.RequestID(ctx),
	)
	return Result{
		Status: http.StatusOK,
		Body: SuccessResponse{
			Success:          true,
			SharePointItemID: itemID,
			EmailSent:        emailSent,
			UnmappedRefs:     record.UnmappedRefs,
		},
		Outcome: OutcomeAccepted,
	}
}

// storeRecord calls the record store under the store timeout. A panic in the
// store is converted to an error.
func (s *Service) storeRecord(ctx context.Context, record models.Record) (itemID string, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanIntakeStore, tracer.String(tracer.AttrListID, s.listID))
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = dErrors.New(dErrors.CodeDependency, fmt.Sprintf("record store panicked: %v", r))
		}
		cancel()
		s.metrics.ObserveStoreDuration(time.Since(start))
		span.SetAttributes(tracer.String(tracer.AttrItemID, itemID))
		span.End(err)
	}()

	itemID, err = s.store.Create(ctx, s.listID, record.Fields)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", dErrors.Wrap(err, dErrors.CodeTimeout, "record store timed out")
		}
		return "", err
	}
	return itemID, nil
}

// notify sends the thank-you message. It never fails the request.
func (s *Service) notify(ctx context.Context, formID string, record models.Record) (sent bool) {
	if record.Email == "" {
		s.logger.InfoContext(ctx, "no email on record, skipping thank-you", "form_id", formID)
		s.metrics.IncNotification(false)
		return false
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanIntakeNotify,
		tracer.String(tracer.AttrEmailHash, tracer.HashEmail(record.Email)),
	)
	ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "notifier panicked", "panic", r, "form_id", formID)
			sent = false
		}
		cancel()
		s.metrics.IncNotification(sent)
		span.SetAttributes(tracer.Bool(tracer.AttrEmailSent, sent))
		span.End(nil)
	}()

	sent = s.notifier.SendThankYou(ctx, models.ThankYou{
		Email:    record.Email,
		FullName: record.FullName,
		FormID:   formID,
		Fields:   maps.Clone(record.Fields),
	})
	if !sent {
		s.logger.WarnContext(ctx, "thank-you email not sent", "form_id", formID)
	}
	return sent
}

func (s *Service) publish(ctx context.Context, sub *models.Submission, itemID string, emailSent bool, unmapped []string) {
	event := models.SubmissionEvent{
		ID:           uuid.NewString(),
		FormID:       sub.FormID,
		Token:        sub.Token,
		ItemID:       itemID,
		EmailSent:    emailSent,
		UnmappedRefs: unmapped,
		SubmittedAt:  sub.SubmittedAt,
		OccurredAt:   s.now().UTC(),
	}
	defer func() {
		if r := recover(); r != nil {
			s.metrics.IncEventPublishFailure()
			s.logger.ErrorContext(ctx, "event publisher panicked",
				"panic", r,
				"event_id", event.ID,
				"form_id", sub.FormID,
			)
		}
	}()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.metrics.IncEventPublishFailure()
		s.logger.ErrorContext(ctx, "failed to publish submission event",
			"error", err,
			"event_id", event.ID,
			"form_id", sub.FormID,
		)
	}
}
