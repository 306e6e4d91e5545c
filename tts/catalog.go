package tts

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/sahilm/fuzzy"
)

// Catalog mirrors the platform's voice list. The list is replaced wholesale
// on every refresh and never mutated by the application.
type Catalog struct {
	provider VoiceProvider
	logger   *log.Logger

	mu       sync.RWMutex
	voices   []Voice
	onChange []func([]Voice)
}

// NewCatalog creates a catalog backed by the given provider.
func NewCatalog(provider VoiceProvider, logger *log.Logger) *Catalog {
	if logger == nil {
		logger = log.Default()
	}
	return &Catalog{
		provider: provider,
		logger:   logger.WithPrefix("voices"),
	}
}

// OnChange registers a callback invoked with the new list after each refresh.
func (c *Catalog) OnChange(fn func([]Voice)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = append(c.onChange, fn)
}

// Start performs the initial refresh and then keeps the list fresh until ctx
// is done. Voices on many platforms populate asynchronously, so the
// provider's change notifications are followed for the catalog's lifetime.
func (c *Catalog) Start(ctx context.Context) error {
	if _, err := c.Refresh(ctx); err != nil {
		return err
	}

	changes := c.provider.VoicesChanged()
	if changes == nil {
		return nil
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				if _, err := c.Refresh(ctx); err != nil {
					c.logger.Warn("Voice refresh failed", "error", err)
				}
			}
		}
	}()
	return nil
}

// Refresh re-queries the provider and replaces the voice list.
func (c *Catalog) Refresh(ctx context.Context) ([]Voice, error) {
	voices, err := c.provider.Voices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}

	list := make([]Voice, len(voices))
	copy(list, voices)

	c.mu.Lock()
	c.voices = list
	callbacks := make([]func([]Voice), len(c.onChange))
	copy(callbacks, c.onChange)
	c.mu.Unlock()

	c.logger.Debug("Voice list refreshed", "count", len(list))

	for _, fn := range callbacks {
		fn(c.Voices())
	}
	return c.Voices(), nil
}

// Voices returns a copy of the current voice list.
func (c *Catalog) Voices() []Voice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Voice, len(c.voices))
	copy(out, c.voices)
	return out
}

// Find looks up a voice by name in the current list.
func (c *Catalog) Find(name string) (Voice, bool) {
	if name == "" {
		return Voice{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, v := range c.voices {
		if v.Name == name {
			return v, true
		}
	}
	return Voice{}, false
}

// FilterByLanguage returns the voices whose language tag equals lang.
func FilterByLanguage(voices []Voice, lang string) []Voice {
	var out []Voice
	for _, v := range voices {
		if SameTag(v.Language, lang) {
			out = append(out, v)
		}
	}
	return out
}

// AutoSelect picks the voice to use when none is selected: the first voice
// sharing lang's primary subtag, else the first voice overall. It returns an
// empty string for an empty list.
func AutoSelect(voices []Voice, lang string) string {
	if len(voices) == 0 {
		return ""
	}
	primary := PrimarySubtag(lang)
	for _, v := range voices {
		if strings.HasPrefix(strings.ToLower(v.Language), primary) {
			return v.Name
		}
	}
	return voices[0].Name
}

type voiceNames []Voice

func (v voiceNames) String(i int) string { return v[i].Name }
func (v voiceNames) Len() int            { return len(v) }

// MatchVoice resolves a user-typed query to a voice. An exact (case
// insensitive) name match wins; otherwise the best fuzzy match is used.
func MatchVoice(voices []Voice, query string) (Voice, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Voice{}, ErrVoiceNotFound
	}
	for _, v := range voices {
		if strings.EqualFold(v.Name, query) || strings.EqualFold(v.ID, query) {
			return v, nil
		}
	}
	matches := fuzzy.FindFrom(query, voiceNames(voices))
	if len(matches) == 0 {
		return Voice{}, fmt.Errorf("%w: %q", ErrVoiceNotFound, query)
	}
	return voices[matches[0].Index], nil
}
