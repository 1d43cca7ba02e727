package model

// Modifiers is the keyboard modifier state attached to a pointer event.
type Modifiers struct {
	Alt   bool `json:"alt,omitempty"`
	Shift bool `json:"shift,omitempty"`
	Ctrl  bool `json:"ctrl,omitempty"`
	Meta  bool `json:"meta,omitempty"`
}

// DefinitionRequest asks the presentation layer to show a definition card.
// Error is set when the lookup could not be resolved; the card is still shown.
type DefinitionRequest struct {
	Word             string   `json:"word"`
	Lemmas           []string `json:"lemmas"`
	FamilyRoot       string   `json:"family_root"`
	Status           Status   `json:"status"`
	FamiliarityLevel int      `json:"familiarity_level"`
	Position         Point    `json:"position"`
	Sentence         string   `json:"sentence,omitempty"`
	Error            string   `json:"error,omitempty"`
}

// TranslationRequest asks the presentation layer to show a translation card.
type TranslationRequest struct {
	Paragraph string `json:"paragraph"`
	Sentence  string `json:"sentence"`
	Streaming bool   `json:"streaming"`
	Position  Point  `json:"position"`
}

// UpdateResult is the remote service's answer to a mutation.
type UpdateResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Palette maps a familiarity status to a highlight color.
type Palette map[Status]string

// DefaultPalette returns the colors used when the learner has not picked any.
func DefaultPalette() Palette {
	return Palette{
		StatusUnknown:  "rgba(255, 99, 71, 0.35)",
		StatusLearning: "rgba(255, 193, 7, 0.35)",
	}
}

// Color returns the color for a status, falling back to the default palette.
func (p Palette) Color(status Status) string {
	if c, ok := p[status]; ok && c != "" {
		return c
	}
	return DefaultPalette()[status]
}
