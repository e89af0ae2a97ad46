// Package models defines the wire and storage models shared by the parser,
// the chapter engine, the store, and the HTTP API.
package models

// CommitAuthor identifies who wrote a commit, in the nested shape used by
// the GitHub commits API.
type CommitAuthor struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Date  string `json:"date,omitempty"`
}

// CommitDetail carries the commit message and author under the "commit" key.
type CommitDetail struct {
	Message string       `json:"message"`
	Author  CommitAuthor `json:"author"`
}

// CommitFile is one changed file with its addition and deletion counts.
type CommitFile struct {
	Filename  string `json:"filename"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// Commit is a commit in the GitHub API wire shape. Commits parsed from an
// uploaded log export are served in this shape so consumers cannot tell them
// apart from commits that came from the live API.
type Commit struct {
	SHA     string       `json:"sha"`
	Commit  CommitDetail `json:"commit"`
	HTMLURL string       `json:"html_url,omitempty"`
	Files   []CommitFile `json:"files,omitempty"`
}

// ShortSHA returns a shortened commit SHA (first 7 characters)
func (c *Commit) ShortSHA() string {
	if len(c.SHA) > 7 {
		return c.SHA[:7]
	}
	return c.SHA
}
