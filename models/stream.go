package models

// MessageType identifies a message pushed on the incremental channel.
type MessageType string

const (
	MessageAssistantResponse MessageType = "assistantResponse"
	MessageAnalysis          MessageType = "analysis"
	MessageArticle           MessageType = "article"
	MessageJurisprudence     MessageType = "jurisprudence"
	MessageComplete          MessageType = "complete"
	MessageError             MessageType = "error"
)

// StreamMessage is one typed frame of the incremental channel.
type StreamMessage struct {
	Type MessageType `json:"type"`
	Data interface{} `json:"data"`
}

// StreamMessages expands an aggregate into the ordered message sequence:
// assistantResponse, analysis, article*, jurisprudence*, complete; or a
// single error message.
func StreamMessages(result *AggregateResult) []StreamMessage {
	if result == nil {
		return []StreamMessage{{Type: MessageError, Data: "empty result"}}
	}
	if result.Failed() {
		return []StreamMessage{{Type: MessageError, Data: result.Error}}
	}

	messages := make([]StreamMessage, 0, 3+len(result.Articles)+len(result.Jurisprudence))
	messages = append(messages,
		StreamMessage{Type: MessageAssistantResponse, Data: result.AssistantResponse},
		StreamMessage{Type: MessageAnalysis, Data: result.Analysis},
	)
	for _, article := range result.Articles {
		messages = append(messages, StreamMessage{Type: MessageArticle, Data: article})
	}
	for _, entry := range result.Jurisprudence {
		messages = append(messages, StreamMessage{Type: MessageJurisprudence, Data: entry})
	}
	messages = append(messages, StreamMessage{Type: MessageComplete, Data: "processing complete"})
	return messages
}
