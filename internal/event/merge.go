package event

// MergeResult contains the reconciled table and what changed
type MergeResult struct {
	Events     []*Event
	Added      int // genuinely new events appended
	Backfilled int // existing events whose empty Detail was filled
}

// Merge reconciles a freshly scraped batch against the existing table.
//
// Batch events whose key is unknown are appended in batch order; when the batch
// repeats a key, the later event replaces the earlier one. Batch events whose key
// already exists leave the existing record as it is, except that a blank Detail
// is filled from a non-blank one. Impact, Actual, Forecast and Previous of a known
// event are never updated, even when the batch has different values.
//
// Neither input slice nor the events in them are modified.
func Merge(existing, batch []*Event) *MergeResult {
	result := &MergeResult{
		Events: make([]*Event, 0, len(existing)+len(batch)),
	}

	index := make(map[Key]int, len(existing)+len(batch))
	for _, evt := range existing {
		key := evt.Key()
		if i, ok := index[key]; ok {
			// A hand-edited store may repeat a key; keep the first row.
			backfill(result.Events[i], evt)
			continue
		}
		cp := *evt
		index[key] = len(result.Events)
		result.Events = append(result.Events, &cp)
	}
	known := len(result.Events)

	for _, evt := range batch {
		key := evt.Key()
		i, ok := index[key]
		switch {
		case ok && i < known:
			if backfill(result.Events[i], evt) {
				result.Backfilled++
			}
		case ok:
			cp := *evt
			result.Events[i] = &cp
		default:
			cp := *evt
			index[key] = len(result.Events)
			result.Events = append(result.Events, &cp)
			result.Added++
		}
	}

	return result
}

// backfill copies src's Detail into dst when dst has none. Returns true if dst changed.
func backfill(dst, src *Event) bool {
	if dst.HasDetail() || !src.HasDetail() {
		return false
	}
	dst.Detail = src.Detail
	return true
}
