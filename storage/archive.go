package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// BallotArchiveKey is the object key of a debate's archived ballot version.
func BallotArchiveKey(debateID, version int) string {
	return fmt.Sprintf("ballots/debate-%d/v%d.json", debateID, version)
}

// UploadJSON encodes v and stores it under key.
func UploadJSON(ctx context.Context, u FileUploader, key string, v interface{}) (*UploadResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode archive %s: %w", key, err)
	}
	return u.Upload(ctx, key, "application/json", bytes.NewReader(data))
}
