package memstream

import "github.com/warmroom/memstream-go/pkg/snapshot"

// Conversions between the in-memory Memory type and the snapshot record
// shape. Kept here so the snapshot package stays free of memstream types.

func memoriesToRecords(memories []*Memory) []snapshot.Record {
	records := make([]snapshot.Record, len(memories))
	for i, m := range memories {
		records[i] = snapshot.Record{
			ID:             m.ID,
			Content:        m.Content,
			Embedding:      m.Embedding,
			Importance:     m.Importance,
			Kind:           string(m.Kind),
			CreatedAt:      m.CreatedAt,
			LastAccessedAt: m.LastAccessedAt,
		}
	}
	return records
}

func recordsToMemories(records []snapshot.Record) []*Memory {
	memories := make([]*Memory, len(records))
	for i, r := range records {
		memories[i] = &Memory{
			ID:             r.ID,
			Content:        r.Content,
			Embedding:      r.Embedding,
			Importance:     r.Importance,
			Kind:           MemoryKind(r.Kind),
			CreatedAt:      r.CreatedAt,
			LastAccessedAt: r.LastAccessedAt,
		}
	}
	return memories
}
