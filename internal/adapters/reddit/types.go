package reddit

import "encoding/json"

// listing es el envoltorio genérico de Reddit: {"kind": "Listing", "data": {...}}.
type listing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string  `json:"after"`
		Children []thing `json:"children"`
	} `json:"data"`
}

// thing es un hijo de un listing. Kind "t3" = post, "t1" = comentario,
// "more" = comentarios sin cargar (se ignoran).
type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type apiPost struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Subreddit  string  `json:"subreddit"`
	URL        string  `json:"url"`
	Permalink  string  `json:"permalink"`
	CreatedUTC float64 `json:"created_utc"`
}

type apiComment struct {
	Author string `json:"author"`
	Body   string `json:"body"`
	Score  int    `json:"score"`
	// Replies es "" cuando no hay respuestas, o un listing.
	Replies json.RawMessage `json:"replies"`
}
