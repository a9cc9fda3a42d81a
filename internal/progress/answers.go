package progress

import (
	"encoding/json"
	"fmt"

	"github.com/sqlc-dev/pqtype"

	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
)

// EncodeAnswers turns a round's answers into a nullable JSON column value.
// Rounds without answers store NULL.
func EncodeAnswers(answers []string) (pqtype.NullRawMessage, error) {
	if len(answers) == 0 {
		return pqtype.NullRawMessage{}, nil
	}
	data, err := json.Marshal(answers)
	if err != nil {
		return pqtype.NullRawMessage{}, fmt.Errorf("marshal answers: %w", err)
	}
	return pqtype.NullRawMessage{RawMessage: data, Valid: true}, nil
}

// DecodeAnswers is the inverse of EncodeAnswers for a scanned column.
func DecodeAnswers(data []byte) ([]string, error) {
	msg := pqtype.NullRawMessage{RawMessage: data, Valid: len(data) > 0}
	if !msg.Valid {
		return nil, nil
	}
	var answers []string
	if err := json.Unmarshal(msg.RawMessage, &answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers: %w", err)
	}
	return answers, nil
}

// EncodeActiveRound serializes a saved round for a JSON column.
func EncodeActiveRound(r domain.ActiveRound) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal active round: %w", err)
	}
	return string(data), nil
}

// DecodeActiveRound is the inverse of EncodeActiveRound.
func DecodeActiveRound(data []byte) (domain.ActiveRound, error) {
	var r domain.ActiveRound
	if err := json.Unmarshal(data, &r); err != nil {
		return domain.ActiveRound{}, fmt.Errorf("unmarshal active round: %w", err)
	}
	return r, nil
}
