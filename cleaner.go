package htmlner

// Cleaner strips boilerplate (navigation, footers, ads) from an HTML page
// before it is loaded, keeping the main content as HTML.
//
// Cleaning changes the token stream, so a model should be applied to pages
// cleaned the same way as its training data.
type Cleaner interface {
	Clean(html string) (string, error)
}
