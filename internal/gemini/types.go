package gemini

type InlineData struct {
	MimeType string
	Data     string
}

// Response is the flattened first candidate of a generateContent call.
type Response struct {
	Text   string
	Images []InlineData
	// FinishReason is the first candidate's finishReason, e.g. "STOP" or
	// "IMAGE_SAFETY".
	FinishReason string
}

type JSONOptions struct {
	Temperature float64
}

type ImageOptions struct {
	AspectRatio string
}
