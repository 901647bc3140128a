package server

import "time"

type signupReq struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResp struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type sessionResp struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	OnTeam    bool   `json:"on_team"`
	TeamID    string `json:"team_id,omitempty"`
	TeamName  string `json:"team_name,omitempty"`
}

type teamCreateReq struct {
	Name string `json:"name"`
}

type teamCreateResp struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// InviteKey is the plaintext team key, shown exactly once. It is not
	// retrievable again by anyone, the server included.
	InviteKey string `json:"invite_key"`
}

type teamJoinReq struct {
	InviteKey string `json:"invite_key"`
}

type cardReq struct {
	Tag             string `json:"tag"`
	Cite            string `json:"cite"`
	CiteInformation string `json:"cite_information"`
	BodyHTML        string `json:"body_html"`
	BodyDraft       string `json:"body_draft"`
	BodyText        string `json:"body_text"`
}

type argumentReq struct {
	Name    string   `json:"name"`
	CardIDs []string `json:"card_ids"`
}

type analyticReq struct {
	Position int    `json:"position"`
	Body     string `json:"body"`
}
