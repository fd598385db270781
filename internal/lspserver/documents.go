package lspserver

// Document is the single text document tracked by the server.
type Document struct {
	// URI is the document URI (e.g. "file:///project/main.mcn").
	URI string

	// LanguageID is the language identifier reported by the client.
	LanguageID string

	// Version is the document version as reported by the client.
	Version int32

	// Text is the current full text of the document.
	Text string
}

// DocumentStore owns the one active document and enforces monotonically
// increasing versions across replacements. It is not safe for concurrent
// use; the server handles messages strictly one at a time, which is the
// only access path.
type DocumentStore struct {
	doc *Document

	// version floor survives Close so a reopened document cannot roll
	// the version backwards within one server lifetime
	lastVersion int32
	haveVersion bool
}

// NewDocumentStore creates an empty store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{}
}

// Replace installs (text, version) as the current document iff version is
// greater than every version seen so far. A stale version is a silent
// no-op returning false: delivery reordering is expected, not an error,
// and a stale update must never clobber fresher state.
func (s *DocumentStore) Replace(uri, languageID string, version int32, text string) bool {
	if s.haveVersion && version <= s.lastVersion {
		return false
	}
	if languageID == "" && s.doc != nil {
		// change notifications carry no language id; keep the one from open
		languageID = s.doc.LanguageID
	}
	s.doc = &Document{
		URI:        uri,
		LanguageID: languageID,
		Version:    version,
		Text:       text,
	}
	s.lastVersion = version
	s.haveVersion = true
	return true
}

// Current returns the active document, or nil if none is open.
func (s *DocumentStore) Current() *Document {
	return s.doc
}

// Close drops the active document but keeps the version floor.
func (s *DocumentStore) Close() {
	s.doc = nil
}
