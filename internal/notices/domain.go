package notices

import "time"

// Notice is an announcement posted on a club page.
type Notice struct {
	ID        int64     `json:"id"`
	ClubID    int64     `json:"club_id"`
	AuthorID  int64     `json:"author_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
