package usecase

import "evervoice/internal/domain"

// ResolveDisplay projects the session snapshot and the history collection
// into the content the UI should show. Pure: no state is read outside the
// arguments and nothing is mutated.
//
// When a history entry is selected its stored fields win, with one
// exception: a live summary generated from exactly that entry's
// transcription takes priority over the persisted one, because it may not
// have finished persisting when the caller re-renders. The sourceText
// match is the authoritative check, not write recency.
func ResolveDisplay(snap domain.SessionSnapshot, entries []domain.HistoryEntry) domain.DisplayContent {
	if id := snap.Selection.HistoryID; id != "" {
		for _, entry := range entries {
			if entry.ID != id {
				continue
			}
			content := domain.DisplayContent{
				Source:             domain.DisplaySourceHistory,
				HistoryID:          entry.ID,
				TranscriptionPhase: domain.PhaseSuccess,
				TranscriptionText:  entry.Transcription,
				SummaryPhase:       domain.PhaseIdle,
			}
			if snap.Summary.Phase == domain.PhaseSuccess && snap.Summary.SourceText == entry.Transcription {
				content.SummaryPhase = domain.PhaseSuccess
				content.SummaryMarkdown = snap.Summary.Markdown
			} else if entry.Summary != "" {
				content.SummaryPhase = domain.PhaseSuccess
				content.SummaryMarkdown = entry.Summary
			}
			return content
		}
		// Selected entry no longer exists (deleted elsewhere); fall back
		// to the live session.
	}

	return domain.DisplayContent{
		Source:             domain.DisplaySourceLive,
		TranscriptionPhase: snap.Transcription.Phase,
		TranscriptionText:  snap.Transcription.Text,
		SummaryPhase:       snap.Summary.Phase,
		SummaryMarkdown:    snap.Summary.Markdown,
	}
}
