package render

import (
	"context"
	"sync"

	"github.com/gcbaptista/go-vocab-highlighter/model"
	"github.com/gcbaptista/go-vocab-highlighter/services"
)

// Card is one request shown on the display surface. Exactly one of
// Definition and Translation is set.
type Card struct {
	Seq         uint64                    `json:"seq"`
	Definition  *model.DefinitionRequest  `json:"definition,omitempty"`
	Translation *model.TranslationRequest `json:"translation,omitempty"`
}

// CardLog is a DisplaySurface that keeps the most recent cards so a headless
// host can hand them to whatever draws them.
type CardLog struct {
	mu    sync.RWMutex
	cards []Card
	seq   uint64
	limit int
}

var _ services.DisplaySurface = (*CardLog)(nil)

// NewCardLog keeps at most limit cards; a non-positive limit keeps 50.
func NewCardLog(limit int) *CardLog {
	if limit <= 0 {
		limit = 50
	}
	return &CardLog{limit: limit}
}

// ShowDefinition implements services.DisplaySurface.
func (l *CardLog) ShowDefinition(_ context.Context, req model.DefinitionRequest) error {
	l.push(Card{Definition: &req})
	return nil
}

// ShowTranslation implements services.DisplaySurface.
func (l *CardLog) ShowTranslation(_ context.Context, req model.TranslationRequest) error {
	l.push(Card{Translation: &req})
	return nil
}

func (l *CardLog) push(c Card) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	c.Seq = l.seq
	l.cards = append(l.cards, c)
	if over := len(l.cards) - l.limit; over > 0 {
		l.cards = append([]Card{}, l.cards[over:]...)
	}
}

// Cards returns the kept cards, oldest first, newer than seq.
func (l *CardLog) Cards(after uint64) []Card {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Card, 0, len(l.cards))
	for _, c := range l.cards {
		if c.Seq > after {
			out = append(out, c)
		}
	}
	return out
}

// Latest returns the most recent card.
func (l *CardLog) Latest() (Card, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.cards) == 0 {
		return Card{}, false
	}
	return l.cards[len(l.cards)-1], true
}
