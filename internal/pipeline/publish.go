package pipeline

import (
	"context"
	"errors"
	"fmt"

	"researchpub/internal/core"
	"researchpub/internal/publishers"
	"researchpub/internal/store"
)

// ErrAlreadyPublished is returned when a draft has been published before.
var ErrAlreadyPublished = errors.New("draft already published")

// Approve marks a draft as reviewed and ready to publish
func (p *Pipeline) Approve(ctx context.Context, draftID string) error {
	d, err := p.store.GetDraft(ctx, draftID)
	if err != nil {
		return err
	}
	if d.Status == core.DraftStatusPublished {
		return fmt.Errorf("draft %s: %w", draftID, ErrAlreadyPublished)
	}
	return p.store.UpdateDraftStatus(ctx, draftID, store.DraftUpdate{Status: core.DraftStatusApproved, Error: d.Error})
}

// Publish sends a draft to a platform. An empty platform picks the default for
// the draft's format. The outcome is recorded on the draft either way.
func (p *Pipeline) Publish(ctx context.Context, draftID, platform string) (publishers.Result, error) {
	run := &core.Run{Kind: core.RunKindPublish, StartedAt: p.now().UTC(), Processed: 1}
	defer p.recordRun(ctx, run)

	d, err := p.store.GetDraft(ctx, draftID)
	if err != nil {
		run.Failed = 1
		return publishers.Result{}, err
	}
	if d.Status == core.DraftStatusPublished {
		run.Failed = 1
		return publishers.Result{}, fmt.Errorf("draft %s: %w", draftID, ErrAlreadyPublished)
	}
	if platform == "" {
		platform = publishers.DefaultPlatform(d.Format)
	}
	run.Notes = platform + " " + draftID

	pub, ok := p.publishers[platform]
	if !ok {
		run.Failed = 1
		return publishers.Result{}, fmt.Errorf("%s: %w", platform, publishers.ErrNotConfigured)
	}

	res, err := pub.Publish(ctx, d)
	if err != nil {
		run.Failed = 1
		if uerr := p.store.UpdateDraftStatus(ctx, draftID, store.DraftUpdate{
			Status:   core.DraftStatusFailed,
			Platform: platform,
			Error:    err.Error(),
		}); uerr != nil {
			p.log.Warn().Err(uerr).Str("draft", draftID).Msg("Failed to record publish failure")
		}
		return publishers.Result{}, err
	}

	run.Succeeded = 1
	if err := p.store.UpdateDraftStatus(ctx, draftID, store.DraftUpdate{
		Status:       core.DraftStatusPublished,
		Platform:     platform,
		PublishedURL: res.URL,
	}); err != nil {
		return res, fmt.Errorf("published to %s but failed to record it: %w", platform, err)
	}
	p.log.Info().Str("draft", draftID).Str("platform", platform).Str("url", res.URL).Msg("Draft published")
	return res, nil
}
