package models

// Book is a single ingested document. Books are keyed by their unique title;
// the full original text is kept so that search results can be expanded with
// surrounding context.
type Book struct {
	ID    int32
	Title string
	Text  string
}
