package translate

import "context"

// Stub echoes the source text. Used when no translation service is
// configured; readers then see items in their original language.
type Stub struct{}

// NewStub creates a Stub.
func NewStub() *Stub { return &Stub{} }

func (s *Stub) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	return text, nil
}
