package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Summary struct {
	ID             int64     `json:"id"`
	FileIDs        string    `json:"file_ids"`
	SummaryText    string    `json:"summary_text"`
	IsConsolidated bool      `json:"is_consolidated"`
	CreatedAt      time.Time `json:"created_at"`
	UserID         int64     `json:"user_id"`
}

func (s *Summary) OwnedBy(userID int64) bool {
	return s != nil && s.UserID == userID
}

// SourceIDs parses FileIDs back into the ordered list it was built from.
func (s *Summary) SourceIDs() ([]int64, error) {
	return ParseFileIDs(s.FileIDs)
}

// JoinFileIDs renders ids in the stored comma-joined form, keeping order and
// duplicates.
func JoinFileIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func ParseFileIDs(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty file id list")
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse file id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
