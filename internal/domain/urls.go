package domain

// URLs holds the base addresses used to derive documentation, issue search
// and source links for repo entities.
type URLs struct {
	// DocsBase is the documentation website, e.g. https://sampleprograms.io.
	DocsBase string `yaml:"docs_base" json:"docs_base"`
	// IssueQueryBase is a GitHub issue search URL; project and language words
	// are appended to it verbatim.
	IssueQueryBase string `yaml:"issue_query_base" json:"issue_query_base"`
	// ArchiveBlobBase points at the code archive on GitHub, e.g.
	// https://github.com/TheRenegadeCoder/sample-programs/blob/main.
	ArchiveBlobBase string `yaml:"archive_blob_base" json:"archive_blob_base"`
}

// DefaultURLs returns the links used by the public Sample Programs project.
func DefaultURLs() URLs {
	return URLs{
		DocsBase:        "https://sampleprograms.io",
		IssueQueryBase:  "https://github.com//TheRenegadeCoder/sample-programs-website/issues?utf8=%E2%9C%93&q=is%3Aissue+is%3Aopen+",
		ArchiveBlobBase: "https://github.com/TheRenegadeCoder/sample-programs/blob/main",
	}
}
