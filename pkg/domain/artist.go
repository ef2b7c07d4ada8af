package domain

type ArtistSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Genre          string `json:"genre,omitempty"`
	ImageURL       string `json:"image_url,omitempty"`
	UpcomingEvents int    `json:"upcoming_events"`
}

type ArtistSearchResponse struct {
	Artists []ArtistSummary `json:"artists"`
	Total   int             `json:"total"`
}
