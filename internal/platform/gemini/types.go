package gemini

// promptData represents the data passed to the prompt template
type promptData struct {
	Text     string
	MaxCards int
}

// ResponseSchema represents the expected structure of the Gemini response
type ResponseSchema struct {
	// Cards is the array of flashcards generated from the text
	Cards []CardSchema `json:"cards"`
}

// CardSchema represents a single flashcard in the API response
type CardSchema struct {
	// Front is the question or prompt side of the flashcard
	Front string `json:"front"`

	// Back is the answer side of the flashcard
	Back string `json:"back"`
}
