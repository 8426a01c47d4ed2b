package amqp

import (
	"encoding/json"
	"time"
)

// TransactionRecordedMessage announces that a user appended a transaction.
// Consumers re-read the user's list from storage if they need more than this.
type TransactionRecordedMessage struct {
	UserID    string    `json:"user_id"`
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Category  string    `json:"category"`
	Amount    string    `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionRecordedMessage stamps the message with the current time.
func NewTransactionRecordedMessage(userID, id, txType, category, amount string) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		UserID:    userID,
		ID:        id,
		Type:      txType,
		Category:  category,
		Amount:    amount,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionRecordedMessageFromJSON decodes a message body.
func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
