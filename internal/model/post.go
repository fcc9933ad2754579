package model

// Post is a single blog post record.
type Post struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// PostPatch carries a partial update. A nil field is left untouched.
type PostPatch struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// Empty reports whether the patch supplies no fields at all.
func (p PostPatch) Empty() bool {
	return p.Title == nil && p.Content == nil
}

// SeedPosts returns the two posts a fresh server starts with.
func SeedPosts() []Post {
	return []Post{
		{ID: 1, Title: "First post", Content: "This is the first post."},
		{ID: 2, Title: "Second post", Content: "This is the second post."},
	}
}
