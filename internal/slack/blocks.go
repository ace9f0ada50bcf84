package slack

// Text object types.
const (
	TextMrkdwn    = "mrkdwn"
	TextPlainText = "plain_text"
)

// TextObject is a Block Kit text element.
type TextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Block is a Block Kit layout block. Only section blocks are produced.
type Block struct {
	Type   string       `json:"type"`
	Text   *TextObject  `json:"text,omitempty"`
	Fields []TextObject `json:"fields,omitempty"`
}

// SectionFields returns a section block holding mrkdwn fields.
func SectionFields(texts ...string) Block {
	fields := make([]TextObject, 0, len(texts))
	for _, text := range texts {
		fields = append(fields, TextObject{Type: TextMrkdwn, Text: text})
	}
	return Block{Type: "section", Fields: fields}
}
